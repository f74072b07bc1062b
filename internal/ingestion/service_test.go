package ingestion

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/table"
)

func newTestService(t *testing.T, seed string) (*Service, *dataset.Store, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "registro.csv")
	if seed != "" {
		if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
			t.Fatalf("seed master: %v", err)
		}
	}
	store, err := dataset.NewStore(path, domain.MasterColumns, dataset.WithLogger(logger))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewService(store, nil, nil, logger), store, path
}

func TestImportAppendsAndProjectsColumns(t *testing.T) {
	service, store, _ := newTestService(t, "N°,Nombre,DNI\n4,ANA,01234567\n")

	data := `nombre,dni,Fecha del evento,columna extra,N°
Luis,7654321,10/05/2024,ignorar,
Rosa,1111,11/05/2024,ignorar,9
Juan,2222,,ignorar,2
`
	summary, err := service.Import(context.Background(), Request{
		FileName: "lote.csv",
		Data:     strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if summary.TotalRows != 3 || summary.AppendedRows != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Renumbered != 2 || summary.FirstSequence != 5 || summary.LastSequence != 10 {
		t.Fatalf("unexpected sequence handling %+v", summary)
	}
	if len(summary.DroppedColumns) != 1 || summary.DroppedColumns[0] != "columna extra" {
		t.Fatalf("unexpected dropped columns %v", summary.DroppedColumns)
	}
	if len(summary.MatchedColumns) != 4 || len(summary.MissingColumns) != len(domain.MasterColumns)-4 {
		t.Fatalf("unexpected column mapping %+v", summary)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	records := domain.MasterRecordsFromTable(loaded)
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	gotSeq := []int{records[0].Sequence, records[1].Sequence, records[2].Sequence, records[3].Sequence}
	if gotSeq[0] != 4 || gotSeq[1] != 5 || gotSeq[2] != 9 || gotSeq[3] != 10 {
		t.Fatalf("unexpected sequences %v", gotSeq)
	}
	if records[1].Name != "Luis" || records[1].EventDates != "10/05/2024" {
		t.Fatalf("unexpected imported record %+v", records[1])
	}
}

func TestImportFailureLeavesMasterUntouched(t *testing.T) {
	seed := "N°,Nombre,DNI\n1,ANA,01234567\n"
	service, _, path := newTestService(t, seed)

	_, err := service.Import(context.Background(), Request{
		FileName: "lote.pdf",
		Data:     strings.NewReader("%PDF"),
	})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	_, err = service.Import(context.Background(), Request{
		FileName: "lote.xlsx",
		Data:     strings.NewReader("not a workbook"),
	})
	if err == nil {
		t.Fatalf("expected malformed workbook to fail")
	}

	_, err = service.Import(context.Background(), Request{
		FileName: "lote.csv",
		Data:     strings.NewReader(""),
	})
	if err == nil {
		t.Fatalf("expected empty file to fail")
	}

	payload, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read master: %v", readErr)
	}
	if string(payload) != seed {
		t.Fatalf("master changed after failed imports: %q", payload)
	}
}

func TestImportReadsWorkbooks(t *testing.T) {
	service, store, _ := newTestService(t, "")

	upload := table.New([]string{"Nombre", "DNI", "Pago"})
	upload.Append([]string{"Ana", "01234567", "40"})
	var buf bytes.Buffer
	if err := table.WriteWorkbook(&buf, table.Sheet{Name: "hoja", Table: upload}); err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	summary, err := service.Import(context.Background(), Request{FileName: "lote.xlsx", Data: &buf})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if summary.AppendedRows != 1 || summary.FirstSequence != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	records := domain.MasterRecordsFromTable(loaded)
	if len(records) != 1 || records[0].DNI != "01234567" || records[0].Payment.String() != "40" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestPreviewDoesNotWrite(t *testing.T) {
	seed := "N°,Nombre,DNI\n1,ANA,01234567\n"
	service, _, path := newTestService(t, seed)

	result, err := service.Preview(context.Background(), Request{
		FileName: "lote.csv",
		Data:     strings.NewReader("Nombre,DNI\nA,1\nB,2\nC,3\n"),
	}, 2)
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	if result.Summary.TotalRows != 3 || len(result.Rows) != 2 {
		t.Fatalf("unexpected preview %+v", result)
	}

	payload, _ := os.ReadFile(path)
	if string(payload) != seed {
		t.Fatalf("preview wrote to master: %q", payload)
	}
}

func TestHTTPHandlerImportsMultipartUpload(t *testing.T) {
	service, _, _ := newTestService(t, "")
	handler := NewHTTPHandler(service)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "lote.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("Nombre,DNI\nAna,01234567\n"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"appendedRows": 1`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHTTPHandlerRejectsUnsupportedUpload(t *testing.T) {
	service, _, _ := newTestService(t, "")
	handler := NewHTTPHandler(service)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "lote.txt")
	_, _ = part.Write([]byte("hola"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}
