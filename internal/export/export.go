// Пакет export — выгрузка отфильтрованных записей в файл xlsx.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType — MIME-тип выгружаемого файла.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoColumns — не задано ни одной колонки.
var ErrNoColumns = errors.New("не заданы колонки выгрузки")

// Column — колонка листа: заголовок и извлечение значения из записи.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

// FileName формирует имя файла: base_from_to.xlsx, если заданы обе
// границы диапазона, иначе base.xlsx.
func FileName(base, from, to string) string {
	if from != "" && to != "" {
		return fmt.Sprintf("%s_%s_%s.xlsx", base, from, to)
	}
	return base + ".xlsx"
}

// Write записывает книгу с одним листом sheet: строка заголовков и по
// строке на запись в порядке rows.
func Write[T any](w io.Writer, sheet string, cols []Column[T], rows []T) error {
	if len(cols) == 0 {
		return ErrNoColumns
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("ошибка именования листа %q: %w", sheet, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("ошибка создания потока листа: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}

	for r, rec := range rows {
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i] = c.Value(rec)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("ошибка записи строки %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("ошибка сохранения листа: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ошибка записи книги: %w", err)
	}
	return nil
}
