package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"courtbot/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService ведет журнал бронирований в Google-таблице.
// Журнал append-only: каждая операция с бронью - отдельная строка.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	loc           *time.Location
}

const auditRange = "Audit!A:A"

func NewSheetsService(credentialsFile, spreadsheetID string, loc *time.Location) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		loc:           loc,
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Audit!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// AppendAuditRow добавляет строку журнала по операции с бронью.
func (s *SheetsService) AppendAuditRow(ctx context.Context, action string, res *models.Reservation, at time.Time) error {
	if res == nil {
		return fmt.Errorf("reservation is nil")
	}

	row := []interface{}{
		at.In(s.loc).Format("2006-01-02 15:04:05"),
		action,
		res.ID,
		res.UserID,
		res.UserName,
		res.SlotStart.In(s.loc).Format(models.SlotLayout),
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, auditRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpdateUsersSheet обновляет таблицу пользователей
func (s *SheetsService) UpdateUsersSheet(ctx context.Context, users []*models.User) error {
	var values [][]interface{}

	// Заголовки
	headers := []interface{}{"ID", "Telegram ID", "Username", "First Name", "Last Name", "Language Code", "Last Activity", "Created At"}
	values = append(values, headers)

	for _, user := range users {
		row := []interface{}{
			user.ID,
			user.TelegramID,
			user.Username,
			user.FirstName,
			user.LastName,
			user.LanguageCode,
			user.LastActivity.In(s.loc).Format("2006-01-02 15:04:05"),
			user.CreatedAt.In(s.loc).Format("2006-01-02 15:04:05"),
		}
		values = append(values, row)
	}

	// Полностью очищаем и перезаписываем лист
	rangeData := "Users!A1:H" + fmt.Sprintf("%d", len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}
