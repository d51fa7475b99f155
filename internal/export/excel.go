// Package export renders fully-resolved lessons and half-terms into xlsx
// workbooks. Inputs arrive already ordered and grouped; no hierarchy logic
// happens here.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/classkit/planner/internal/curriculum"
)

const defaultSheet = "Sheet1"

// LessonDocument is one lesson plus its display number in whichever
// container the caller resolved it from.
type LessonDocument struct {
	Lesson        curriculum.Lesson
	DisplayNumber int
}

// RenderLesson builds a one-sheet workbook for a single lesson: header
// text, activity rows grouped by category, durations and a total row,
// footer text.
func RenderLesson(doc LessonDocument) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeLessonSheet(f, defaultSheet, doc); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// RenderHalfTerm builds a workbook with one sheet per lesson in the
// half-term, in the half-term's own order.
func RenderHalfTerm(h curriculum.HalfTerm, docs []LessonDocument) (*excelize.File, error) {
	f := excelize.NewFile()
	if len(docs) == 0 {
		if err := f.SetCellValue(defaultSheet, "A1", fmt.Sprintf("%s (%s): no lessons", h.Name, h.Months)); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	for i, doc := range docs {
		sheet := fmt.Sprintf("Lesson %d", doc.DisplayNumber)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("add sheet %q: %w", sheet, err)
			}
		}
		if err := writeLessonSheet(f, sheet, doc); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteLesson renders a lesson workbook directly to w.
func WriteLesson(w io.Writer, doc LessonDocument) error {
	f, err := RenderLesson(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeLessonSheet(f *excelize.File, sheet string, doc LessonDocument) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("style: %w", err)
	}

	row := 1
	set := func(col string, v any) error {
		return f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
	}

	title := doc.Lesson.Title
	if doc.DisplayNumber > 0 {
		title = fmt.Sprintf("Lesson %d: %s", doc.DisplayNumber, doc.Lesson.Title)
	}
	if err := set("A", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold); err != nil {
		return err
	}
	row++

	if doc.Lesson.Header != "" {
		if err := set("A", doc.Lesson.Header); err != nil {
			return err
		}
		row++
	}
	row++

	for _, group := range doc.Lesson.ByCategory() {
		if err := set("A", group.Category); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold); err != nil {
			return err
		}
		row++
		for _, a := range group.Activities {
			if err := set("A", a.Title); err != nil {
				return err
			}
			if err := set("B", a.Notes); err != nil {
				return err
			}
			if err := set("C", fmt.Sprintf("%d min", a.Duration)); err != nil {
				return err
			}
			row++
		}
	}

	row++
	if err := set("A", "Total"); err != nil {
		return err
	}
	if err := set("C", fmt.Sprintf("%d min", doc.Lesson.Duration())); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), bold); err != nil {
		return err
	}
	row++

	if doc.Lesson.Footer != "" {
		row++
		if err := set("A", doc.Lesson.Footer); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 10)
}
