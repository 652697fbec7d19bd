package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/adapter/idgen"
	"github.com/iho/edufinance/internal/adapter/report"
	"github.com/iho/edufinance/internal/adapter/repository/memory"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

type fakeAI struct {
	receipt *domain.ReceiptDraft
	text    string
	audio   []byte
	image   []byte
	err     error

	lastQuery   string
	lastContext string
	lastSpoken  string
	lastSize    domain.ImageSize
}

func (f *fakeAI) ExtractReceipt(_ context.Context, _ []byte, _ string) (*domain.ReceiptDraft, error) {
	return f.receipt, f.err
}

func (f *fakeAI) Chat(_ context.Context, message string) (string, error) {
	return "fast:" + message, f.err
}

func (f *fakeAI) SearchChat(_ context.Context, message string) (string, error) {
	return "search:" + message, f.err
}

func (f *fakeAI) Analyze(_ context.Context, query, ledgerContext string) (string, error) {
	f.lastQuery, f.lastContext = query, ledgerContext
	return f.text, f.err
}

func (f *fakeAI) Speak(_ context.Context, text string) ([]byte, error) {
	f.lastSpoken = text
	return f.audio, f.err
}

func (f *fakeAI) GenerateImage(_ context.Context, _ string, size domain.ImageSize) ([]byte, error) {
	f.lastSize = size
	return f.image, f.err
}

func (f *fakeAI) EditImage(_ context.Context, _ []byte, _ string) ([]byte, error) {
	return f.image, f.err
}

type fixture struct {
	blobs        *memory.BlobStore
	ledger       *usecase.LedgerStore
	ai           *fakeAI
	transactions *TransactionHandler
	ledgerH      *LedgerHandler
	reports      *ReportHandler
	assistant    *AssistantHandler
	router       chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{blobs: memory.NewBlobStore(), ai: &fakeAI{}}
	f.ledger = usecase.NewLedgerStore(usecase.LedgerStoreConfig{Blobs: f.blobs})

	views := usecase.NewViewUseCase(f.ledger)
	fixedNow := func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }

	f.transactions = NewTransactionHandler(usecase.NewTransactionUseCase(f.ledger, idgen.NewULIDGenerator()), views)
	f.transactions.now = fixedNow
	f.ledgerH = NewLedgerHandler(views, usecase.NewReconciliationUseCase(f.ledger))
	f.ledgerH.now = fixedNow
	f.reports = NewReportHandler(usecase.NewReportUseCase(views, usecase.ReportConfig{
		Renderers: map[domain.ReportFormat]usecase.ReportRenderer{
			domain.ReportFormatPDF:  report.NewPDFRenderer(),
			domain.ReportFormatXLSX: report.NewXLSXRenderer(),
		},
		Now:    fixedNow,
		Logger: zerolog.Nop(),
	}))
	f.reports.now = fixedNow
	f.assistant = NewAssistantHandler(usecase.NewAssistantUseCase(f.ai, f.ledger, usecase.AssistantConfig{Logger: zerolog.Nop()}))
	f.assistant.now = fixedNow

	r := chi.NewRouter()
	r.Get("/transactions", f.transactions.List)
	r.Post("/transactions", f.transactions.Create)
	r.Get("/transactions/{id}", f.transactions.Get)
	r.Put("/transactions/{id}", f.transactions.Update)
	r.Delete("/transactions/{id}", f.transactions.Delete)
	r.Get("/summary", f.ledgerH.Summary)
	r.Get("/dashboard", f.ledgerH.Dashboard)
	r.Get("/catalog", f.ledgerH.Catalog)
	r.Get("/reconcile", f.ledgerH.Reconcile)
	r.Get("/reports/pdf", f.reports.Export(domain.ReportFormatPDF))
	r.Get("/reports/xlsx", f.reports.Export(domain.ReportFormatXLSX))
	r.Post("/ai/receipt", f.assistant.Receipt)
	r.Post("/ai/chat", f.assistant.Chat)
	r.Post("/ai/analysis", f.assistant.Analysis)
	r.Post("/ai/speech", f.assistant.Speech)
	r.Get("/ai/summary-audio", f.assistant.SummaryAudio)
	r.Post("/ai/images", f.assistant.Image)
	r.Post("/ai/images/edit", f.assistant.ImageEdit)
	f.router = r

	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) create(t *testing.T, body string) dto.TransactionResponse {
	t.Helper()

	rr := f.do(t, http.MethodPost, "/transactions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		part, err := mw.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestTransactionHandler_CRUD(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, `{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":"1500.50","method":"CASH","description":"May tuition"}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "INCOME", created.Type)
	assert.Equal(t, "Sala 3", created.Course)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(created.Amount))

	rr := f.do(t, http.MethodGet, "/transactions/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPut, "/transactions/"+created.ID,
		`{"date":"2024-05-03","type":"EXPENSE","course":"Otros","amount":200,"method":"TRANSFER","description":""}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "EXPENSE", updated.Type)
	assert.Equal(t, domain.DefaultExpenseDescription, updated.Description)

	rr = f.do(t, http.MethodDelete, "/transactions/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionHandler_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"date":`},
		{"bad amount", `{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":"abc","method":"CASH"}`},
		{"negative amount", `{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":-5,"method":"CASH"}`},
		{"bad type", `{"date":"2024-05-02","type":"GIFT","course":"Sala 3","amount":5,"method":"CASH"}`},
		{"bad date", `{"date":"02/05/2024","type":"INCOME","course":"Sala 3","amount":5,"method":"CASH"}`},
		{"bad method", `{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":5,"method":"CHEQUE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	rr := f.do(t, http.MethodGet, "/transactions", "")
	var view dto.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Empty(t, view.Transactions)
}

func TestTransactionHandler_UpdateUnknown(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPut, "/transactions/missing",
		`{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":5,"method":"CASH"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodDelete, "/transactions/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionHandler_ListByPeriod(t *testing.T) {
	f := newFixture(t)

	f.create(t, `{"date":"2024-04-30","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)
	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 4","amount":300,"method":"TRANSFER"}`)
	f.create(t, `{"date":"2024-05-15","type":"EXPENSE","course":"Otros","amount":50,"method":"CASH"}`)

	rr := f.do(t, http.MethodGet, "/transactions?mode=month", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var view dto.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.True(t, view.Period.Active)
	assert.Equal(t, "2024-05", view.Period.Month)
	require.Len(t, view.Transactions, 2)
	assert.Equal(t, "2024-05-15", view.Transactions[0].Date)
	assert.True(t, decimal.NewFromInt(250).Equal(view.Summary.NetBalance))

	rr = f.do(t, http.MethodGet, "/transactions?mode=range&start=2024-04-01&end=2024-05-10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.True(t, view.Period.Active)
	assert.Equal(t, "from 2024-04-01 to 2024-05-10", view.Period.Label)
	assert.Len(t, view.Transactions, 2)

	rr = f.do(t, http.MethodGet, "/transactions?mode=range&start=2024-04-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/transactions?mode=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/transactions?mode=month&month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLedgerHandler_SummaryAndDashboard(t *testing.T) {
	f := newFixture(t)

	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)
	f.create(t, `{"date":"2024-05-02","type":"INCOME","course":"Sala 3","amount":50,"method":"TRANSFER"}`)
	f.create(t, `{"date":"2024-05-03","type":"EXPENSE","course":"Otros","amount":30,"method":"CASH"}`)

	rr := f.do(t, http.MethodGet, "/summary?mode=month&month=2024-05", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var summary dto.PeriodSummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.True(t, summary.Active)
	assert.Equal(t, 3, summary.Summary.Count)
	assert.True(t, decimal.NewFromInt(70).Equal(summary.Summary.CashBalance))
	assert.True(t, decimal.NewFromInt(50).Equal(summary.Summary.TransferBalance))
	assert.NotEmpty(t, summary.Breakdown)

	rr = f.do(t, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var dashboard dto.DashboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dashboard))
	assert.True(t, decimal.NewFromInt(120).Equal(dashboard.Summary.NetBalance))
	assert.Len(t, dashboard.Recent, 3)
}

func TestLedgerHandler_Catalog(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var catalog dto.CatalogResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &catalog))
	assert.Equal(t, domain.Courses, catalog.Courses)
	assert.Equal(t, domain.ExpenseCategories, catalog.ExpenseCategories)
	assert.NotEmpty(t, catalog.Methods)
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	f := newFixture(t)

	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)

	rr := f.do(t, http.MethodGet, "/reconcile", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.IsReconciled)
	assert.Equal(t, 1, resp.LiveCount)

	require.NoError(t, f.blobs.Put(context.Background(), f.ledger.Key(), []byte("[]")))

	rr = f.do(t, http.MethodGet, "/reconcile", "")
	require.Equal(t, http.StatusConflict, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.IsReconciled)
	assert.Len(t, resp.MissingStored, 1)
}

func TestReportHandler_Export(t *testing.T) {
	f := newFixture(t)

	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)

	rr := f.do(t, http.MethodGet, "/reports/pdf?mode=month", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="financial-report-2024-05-20.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))

	rr = f.do(t, http.MethodGet, "/reports/xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="report-full_history.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = f.do(t, http.MethodGet, "/reports/pdf?mode=range&start=bad", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssistantHandler_Chat(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/ai/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.TextResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "fast:hello", resp.Text)

	rr = f.do(t, http.MethodPost, "/ai/chat", `{"message":"fees 2024","mode":"search"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "search:fees 2024", resp.Text)

	rr = f.do(t, http.MethodPost, "/ai/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/ai/chat", `{"message":"hi","mode":"deep"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssistantHandler_ProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.ai.err = errors.New("quota exceeded: sk-secret")

	rr := f.do(t, http.MethodPost, "/ai/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"request failed"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "sk-secret")
}

func TestAssistantHandler_Analysis(t *testing.T) {
	f := newFixture(t)
	f.ai.text = "Spending is stable."

	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)

	rr := f.do(t, http.MethodPost, "/ai/analysis", `{"query":"how are we doing?"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.TextResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Spending is stable.", resp.Text)
	assert.Equal(t, "how are we doing?", f.ai.lastQuery)
	assert.Contains(t, f.ai.lastContext, "Sala 3")
}

func TestAssistantHandler_Receipt(t *testing.T) {
	f := newFixture(t)
	f.ai.receipt = &domain.ReceiptDraft{Amount: "42.10", Date: "2024-05-02", Description: "Paint", Type: "EXPENSE"}

	body, contentType := multipartBody(t, pngBytes(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/ai/receipt", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var draft dto.DraftResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &draft))
	require.NotNil(t, draft.Amount)
	assert.True(t, decimal.RequireFromString("42.10").Equal(*draft.Amount))
	assert.Equal(t, "EXPENSE", draft.Type)
	assert.Equal(t, domain.DefaultExpenseCategory(), draft.Course)

	body, contentType = multipartBody(t, []byte("not an image"), nil)
	req = httptest.NewRequest(http.MethodPost, "/ai/receipt", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssistantHandler_Speech(t *testing.T) {
	f := newFixture(t)
	f.ai.audio = []byte("ID3audio")

	rr := f.do(t, http.MethodPost, "/ai/speech", `{"text":"Good morning"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ID3audio", rr.Body.String())
	assert.Equal(t, "Good morning", f.ai.lastSpoken)

	f.create(t, `{"date":"2024-05-01","type":"INCOME","course":"Sala 3","amount":100,"method":"CASH"}`)

	rr = f.do(t, http.MethodGet, "/ai/summary-audio?mode=month", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "For the selected period (period: 2024-05), the net balance is $100.00. Income: $100.00. Expenses: $0.00.", f.ai.lastSpoken)
}

func TestAssistantHandler_Images(t *testing.T) {
	f := newFixture(t)
	f.ai.image = pngBytes(t)

	rr := f.do(t, http.MethodPost, "/ai/images", `{"prompt":"a school garden","size":"2k"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.ImageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "image/png", resp.MimeType)
	decoded, err := base64.StdEncoding.DecodeString(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, f.ai.image, decoded)
	assert.Equal(t, domain.ImageSize2K, f.ai.lastSize)

	rr = f.do(t, http.MethodPost, "/ai/images", `{"prompt":"x","size":"8K"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body, contentType := multipartBody(t, pngBytes(t), map[string]string{"prompt": "add a hat"})
	req := httptest.NewRequest(http.MethodPost, "/ai/images/edit", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body, contentType = multipartBody(t, pngBytes(t), nil)
	req = httptest.NewRequest(http.MethodPost, "/ai/images/edit", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(memory.NewBlobStore(), "memory")

	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready","storage":"memory"}`, rr.Body.String())
}
