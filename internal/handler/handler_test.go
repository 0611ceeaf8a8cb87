package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"agro-attendance/internal/config"
	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"
	"agro-attendance/internal/service"
	"agro-attendance/pkg/attendanceapi"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminChat    int64 = 1
	operatorChat int64 = 2
	strangerChat int64 = 3
)

type fakeMessenger struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeMessenger) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeMessenger) Request(req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and edit sent to chatID.
func (f *fakeMessenger) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

func (f *fakeMessenger) last(chatID int64) string {
	texts := f.texts(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeMessenger) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

type fakeAPI struct {
	mu       sync.Mutex
	rosters  map[uint]models.AreaRoster
	requests []attendanceapi.BatchRequest
	saveErr  error
	gate     chan struct{}
}

func (f *fakeAPI) GetAreas(ctx context.Context) ([]models.Area, error) {
	return []models.Area{{ID: 1, Name: "Packing"}, {ID: 2, Name: "Harvest"}}, nil
}

func (f *fakeAPI) GetEmployeesByAreas(ctx context.Context, areaIDs []uint) ([]models.AreaRoster, error) {
	var out []models.AreaRoster
	for _, id := range areaIDs {
		if r, ok := f.rosters[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAPI) SaveBatch(ctx context.Context, requestID string, req attendanceapi.BatchRequest) (*attendanceapi.BatchResponse, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &attendanceapi.BatchResponse{Processed: len(req.Records), TimeElapsed: "0.20s"}, nil
}

type fixture struct {
	handler   *Handler
	messenger *fakeMessenger
	api       *fakeAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	operatorRepo, err := repository.NewGormOperatorRepository(db)
	if err != nil {
		t.Fatalf("operator repo: %v", err)
	}
	settingsRepo, err := repository.NewGormDefaultSettingsRepository(db)
	if err != nil {
		t.Fatalf("settings repo: %v", err)
	}
	submissionRepo, err := repository.NewGormSubmissionRepository(db)
	if err != nil {
		t.Fatalf("submission repo: %v", err)
	}
	totalsRepo, err := repository.NewGormDailyTotalsRepository(db)
	if err != nil {
		t.Fatalf("totals repo: %v", err)
	}
	calendarRepo, err := repository.NewGormNonWorkingDayRepository(db)
	if err != nil {
		t.Fatalf("calendar repo: %v", err)
	}

	operators := service.NewOperatorService(operatorRepo)
	if err := operators.InitializeAdmin(adminChat); err != nil {
		t.Fatalf("init admin: %v", err)
	}
	if _, err := operators.Add(adminChat, operatorChat, "Ana", models.RoleOperator); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	api := &fakeAPI{rosters: map[uint]models.AreaRoster{
		1: {AreaID: 1, AreaName: "Packing", Employees: []models.Employee{{ID: 10, Name: "Rosa"}, {ID: 11, Name: "Juan"}}},
		2: {AreaID: 2, AreaName: "Harvest", Employees: []models.Employee{{ID: 20, Name: "Pedro"}}},
	}}
	messenger := &fakeMessenger{}

	h := NewHandler(
		messenger,
		api,
		operators,
		service.NewDefaultSettingsService(settingsRepo, models.FactoryDefaults()),
		service.NewReportService(totalsRepo),
		service.NewCalendarService(calendarRepo),
		submissionRepo,
		&config.Config{RequirePermissionReason: true},
	)
	h.now = func() time.Time { return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC) }

	return &fixture{handler: h, messenger: messenger, api: api}
}

// command delivers a text command from chatID and waits for any background
// submission it started.
func (f *fixture) command(chatID int64, text string) {
	f.deliver(chatID, text)
	f.handler.wg.Wait()
}

// deliver hands a text command to the handler without waiting for
// background work.
func (f *fixture) deliver(chatID int64, text string) {
	cmd, _, _ := strings.Cut(text, " ")
	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{UserName: "tester"},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(cmd)},
			},
		},
	})
}

func TestUnknownChatIsRejected(t *testing.T) {
	f := newFixture(t)

	f.command(strangerChat, "/select 1")
	if !strings.Contains(f.messenger.last(strangerChat), "not registered") {
		t.Fatalf("unexpected reply %q", f.messenger.last(strangerChat))
	}

	f.command(strangerChat, "/help")
	if !strings.Contains(f.messenger.last(strangerChat), "/submit") {
		t.Fatalf("help must be available to everyone")
	}
}

func TestSelectEditAndSubmit(t *testing.T) {
	f := newFixture(t)

	f.command(operatorChat, "/select 1,2")
	if !strings.Contains(f.messenger.last(operatorChat), "3 employees loaded from 2 area(s).") {
		t.Fatalf("unexpected reply %q", f.messenger.last(operatorChat))
	}

	f.command(operatorChat, "/set 10 exit 15:30")
	f.command(operatorChat, "/bulk vacation yes area:2")
	if !strings.Contains(f.messenger.last(operatorChat), "1 of 1 records updated.") {
		t.Fatalf("unexpected bulk reply %q", f.messenger.last(operatorChat))
	}
	f.command(operatorChat, "/bulk breakfast 99 all")

	f.command(operatorChat, "/submit 2026-10-14")

	if len(f.api.requests) != 1 {
		t.Fatalf("expected one batch, got %d", len(f.api.requests))
	}
	req := f.api.requests[0]
	if req.Date != "2026-10-14" || len(req.Records) != 3 {
		t.Fatalf("unexpected batch %+v", req)
	}
	if req.Records[0].ExitTime != "15:30" || !req.Records[2].IsVacation {
		t.Fatalf("edits missing from batch: %+v", req.Records)
	}
	if req.Records[1].FoodAllowance.Breakfast != models.MaxFoodCounter {
		t.Fatalf("expected clamped breakfast, got %d", req.Records[1].FoodAllowance.Breakfast)
	}

	if !strings.Contains(f.messenger.last(operatorChat), "3 of 3 records registered for 2026-10-14") {
		t.Fatalf("unexpected result %q", f.messenger.last(operatorChat))
	}

	var sawFull bool
	for _, text := range f.messenger.texts(operatorChat) {
		if strings.Contains(text, "100%") {
			sawFull = true
		}
	}
	if !sawFull {
		t.Fatalf("expected the progress message to reach 100%%")
	}

	f.command(operatorChat, "/history")
	if !strings.Contains(f.messenger.last(operatorChat), "2026-10-14, 3 of 3 records") {
		t.Fatalf("unexpected history %q", f.messenger.last(operatorChat))
	}

	f.command(operatorChat, "/report 2026-10-14 2")
	if !strings.Contains(f.messenger.last(operatorChat), "Vacation: 1") {
		t.Fatalf("unexpected report %q", f.messenger.last(operatorChat))
	}

	f.command(operatorChat, "/export 2026-10-14")
	docs := f.messenger.documents()
	if len(docs) != 1 {
		t.Fatalf("expected an exported workbook, got %d documents", len(docs))
	}
}

func TestSubmitValidationFailureListsFields(t *testing.T) {
	f := newFixture(t)

	f.command(operatorChat, "/select 1")
	f.command(operatorChat, "/set 11 permission 2")
	f.command(operatorChat, "/submit")

	if len(f.api.requests) != 0 {
		t.Fatalf("invalid batch must not be sent")
	}
	if !strings.Contains(f.messenger.last(operatorChat), "11.permissionReason") {
		t.Fatalf("expected the missing reason to be reported, got %q", f.messenger.last(operatorChat))
	}
}

func TestSubmitWarnsOnNonWorkingDay(t *testing.T) {
	f := newFixture(t)
	f.handler.calendar = service.NewCalendarService(&holidayRepo{date: "2026-10-12"})

	f.command(operatorChat, "/select 1")
	f.command(operatorChat, "/submit 2026-10-12")

	var warned bool
	for _, text := range f.messenger.texts(operatorChat) {
		if strings.Contains(text, "2026-10-12 is a non-working day") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a non-working day warning")
	}
	if len(f.api.requests) != 1 {
		t.Fatalf("non-working days must still be saved")
	}
}

type holidayRepo struct {
	date string
}

func (r *holidayRepo) ReplaceYear(year int, days []models.NonWorkingDay) error {
	return nil
}

func (r *holidayRepo) GetByYearMonth(year, month int) ([]models.NonWorkingDay, error) {
	return nil, nil
}

func (r *holidayRepo) IsNonWorkingDay(date string) (bool, error) {
	return date == r.date, nil
}

func TestDefaultsNeedAdminAndConfirmation(t *testing.T) {
	f := newFixture(t)

	f.command(operatorChat, "/defaults entry=07:00")
	if !strings.Contains(f.messenger.last(operatorChat), "Access denied") {
		t.Fatalf("expected operators to be refused, got %q", f.messenger.last(operatorChat))
	}

	f.command(adminChat, "/select 1")
	f.command(adminChat, "/set 10 entry 05:00")
	f.command(adminChat, "/defaults entry=07:00")
	if !strings.Contains(f.messenger.last(adminChat), "discards all edits") {
		t.Fatalf("expected a confirmation prompt, got %q", f.messenger.last(adminChat))
	}
	if f.handler.settings.Current().EntryTime != "06:30" {
		t.Fatalf("defaults must not change before confirmation")
	}

	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			Data:    callbackDefaultsConfirm,
			Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: adminChat}},
		},
	})

	if f.handler.settings.Current().EntryTime != "07:00" {
		t.Fatalf("expected confirmed defaults to be stored")
	}
	r, _ := f.handler.session(adminChat).Store().Get(10)
	if r.EntryTime != "07:00" {
		t.Fatalf("expected the working set to be reseeded, got %s", r.EntryTime)
	}
}

func TestOperatorManagement(t *testing.T) {
	f := newFixture(t)

	f.command(operatorChat, "/addoperator 3 Luis")
	if !strings.Contains(f.messenger.last(operatorChat), "Access denied") {
		t.Fatalf("operators must not add operators")
	}

	f.command(adminChat, "/addoperator 3 Luis Gomez")
	if !strings.Contains(f.messenger.last(adminChat), "Luis Gomez (3) added as operator") {
		t.Fatalf("unexpected reply %q", f.messenger.last(adminChat))
	}

	f.command(strangerChat, "/records")
	if !strings.Contains(f.messenger.last(strangerChat), "No records") {
		t.Fatalf("new operator should have access, got %q", f.messenger.last(strangerChat))
	}

	f.command(adminChat, "/removeoperator 1")
	if !strings.Contains(f.messenger.last(adminChat), "last administrator") {
		t.Fatalf("unexpected reply %q", f.messenger.last(adminChat))
	}
}

func TestSubmitCapturesRecordsWhenRequested(t *testing.T) {
	f := newFixture(t)
	f.command(operatorChat, "/select 1")
	f.api.gate = make(chan struct{})

	f.deliver(operatorChat, "/submit 2026-10-14")
	f.deliver(operatorChat, "/bulk vacation yes all")
	f.deliver(operatorChat, "/submit 2026-10-14")
	if !strings.Contains(f.messenger.last(operatorChat), "already running") {
		t.Fatalf("expected the second submit to be refused, got %q", f.messenger.last(operatorChat))
	}

	close(f.api.gate)
	f.handler.wg.Wait()

	progress := 0
	f.messenger.mu.Lock()
	for _, c := range f.messenger.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && strings.Contains(m.Text, "Saving attendance") {
			progress++
		}
	}
	f.messenger.mu.Unlock()
	if progress != 1 {
		t.Fatalf("expected one progress message, got %d", progress)
	}

	if len(f.api.requests) != 1 {
		t.Fatalf("expected one batch, got %d", len(f.api.requests))
	}
	for _, r := range f.api.requests[0].Records {
		if r.IsVacation {
			t.Fatalf("edit made after /submit was sent for employee %d", r.EmployeeID)
		}
	}

	rows, err := f.handler.reports.DayTotals("2026-10-14", nil)
	if err != nil || len(rows) == 0 {
		t.Fatalf("expected stored totals, got %v (%v)", rows, err)
	}
	if rows[0].VacationCount != 0 || rows[0].RecordCount != 2 {
		t.Fatalf("stored totals differ from the batch: %+v", rows[0])
	}
}
