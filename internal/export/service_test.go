package export

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/ledger"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/table"
)

const masterCSV = "N°,Fecha de Ingreso,Documento,Nombre,DNI,Rubro,Pago,N° Recibo,Fecha del Evento,N° Puesto\n" +
	"1,02/04/2024,EXP-1,Ana,01234567,comida,40,R-1,10/05/2024 Y 11/05/2024,A-3\n" +
	"2,02/04/2024,EXP-2,Luis,7654321,ropa,20,R-2,pendiente,B-1\n"

const ledgerCSV = "dni,fecha_evento_dia,puesto_codigo,en_puesto_correcto,voucher_ok,observacion,archivo_nombre,timestamp\n" +
	"01234567,10/05/2024,A-3,true,false,sin voucher,foto.jpg,2024-05-10 09:15:00\n"

func newTestService(t *testing.T, master, ledgerFile string) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	masterPath := filepath.Join(dir, "registro.csv")
	ledgerPath := filepath.Join(dir, "verificacion.csv")
	for path, content := range map[string]string{masterPath: master, ledgerPath: ledgerFile} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}

	masterStore, err := dataset.NewStore(masterPath, nil, dataset.WithLogger(logger))
	if err != nil {
		t.Fatalf("master store: %v", err)
	}
	ledgerStore, err := dataset.NewStore(ledgerPath, ledger.Columns, dataset.WithLogger(logger))
	if err != nil {
		t.Fatalf("ledger store: %v", err)
	}
	service := NewService(masterStore, ledgerStore, WithLogger(logger), WithMetrics(metrics.New()))
	service.now = func() time.Time { return time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC) }
	return service
}

func TestWriteVerificationsCSV(t *testing.T) {
	service := newTestService(t, masterCSV, ledgerCSV)

	var buf bytes.Buffer
	n, err := service.WriteVerificationsCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("reported %d bytes, wrote %d", n, buf.Len())
	}

	parsed, err := table.ParseCSV(buf.Bytes())
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if strings.Join(parsed.Headers, ",") != strings.Join(ledger.Columns, ",") {
		t.Fatalf("unexpected headers %v", parsed.Headers)
	}
	if parsed.Len() != 1 || parsed.Cell(0, 0) != "01234567" || parsed.Cell(0, 5) != "sin voucher" {
		t.Fatalf("unexpected rows %v", parsed.Rows)
	}
}

func TestWriteWorkbookHasThreeSheets(t *testing.T) {
	service := newTestService(t, masterCSV, ledgerCSV)

	var buf bytes.Buffer
	if _, err := service.WriteWorkbook(context.Background(), &buf); err != nil {
		t.Fatalf("export returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetMaster, SheetDayView, SheetVerifications}
	if strings.Join(sheets, "|") != strings.Join(want, "|") {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}

	dayRows, err := f.GetRows(SheetDayView)
	if err != nil {
		t.Fatalf("read day view: %v", err)
	}
	if len(dayRows) != 3 {
		t.Fatalf("expected header plus two day rows, got %d", len(dayRows))
	}
	if dayRows[1][0] != "01234567" || dayRows[1][5] != "10/05/2024" || dayRows[2][5] != "11/05/2024" {
		t.Fatalf("unexpected day rows %v", dayRows)
	}

	masterRows, err := f.GetRows(SheetMaster)
	if err != nil {
		t.Fatalf("read master: %v", err)
	}
	if len(masterRows) != 3 || masterRows[2][3] != "Luis" {
		t.Fatalf("expected master sheet to carry every record, got %v", masterRows)
	}
}

func TestWriteWorkbookFailsOnSchemaError(t *testing.T) {
	service := newTestService(t, "Nombre,DNI\nAna,1\n", ledgerCSV)

	_, err := service.WriteWorkbook(context.Background(), &bytes.Buffer{})
	var missing *table.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
}

func TestHTTPHandlerServesDownloads(t *testing.T) {
	service := newTestService(t, masterCSV, ledgerCSV)
	handler := NewHTTPHandler(service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/verificaciones.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="verificaciones_20240512.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/feria.xlsx", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected workbook response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/otro.pdf", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHTTPHandlerReportsSchemaErrors(t *testing.T) {
	service := newTestService(t, "Nombre,DNI\nAna,1\n", ledgerCSV)
	handler := NewHTTPHandler(service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/feria.xlsx", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestWriteVerificationsCSVKeepsRowsWithoutKey(t *testing.T) {
	service := newTestService(t, masterCSV, ledgerCSV+",sábado,,,,hand entered,,\n")

	var buf bytes.Buffer
	if _, err := service.WriteVerificationsCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	parsed, err := table.ParseCSV(buf.Bytes())
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if parsed.Len() != 2 || parsed.Cell(1, 1) != "sábado" || parsed.Cell(1, 5) != "hand entered" {
		t.Fatalf("expected the hand-entered row in the download, got %v", parsed.Rows)
	}
}
