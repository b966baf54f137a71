package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"courtbot/internal/models"

	"github.com/xuri/excelize/v2"
)

// exportReservations выгружает всю книгу бронирований в XLSX и
// возвращает путь к файлу.
func (b *Bot) exportReservations(ctx context.Context) (string, int, error) {
	reservations, err := b.ledger.AllReservations(ctx)
	if err != nil {
		return "", 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reservations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", 0, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "User ID", "Player", "Date", "Time", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	loc := b.ledger.Location()
	for i, res := range reservations {
		row := i + 2
		slot := res.SlotStart.In(loc)
		values := []interface{}{
			res.ID,
			res.UserID,
			res.UserName,
			slot.Format(models.DateLayout),
			slot.Format("15:04"),
			res.CreatedAt.In(loc).Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	dir := b.config.Exports.Path
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, fmt.Sprintf("reservations_%s.xlsx", b.ledger.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", 0, err
	}

	return path, len(reservations), nil
}
