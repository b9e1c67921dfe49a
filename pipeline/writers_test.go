package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/google/go-cmp/cmp"
)

func sampleCar() *models.CarListing {
	return &models.CarListing{
		URL:                   "http://example.test/offers/vw-passat-1",
		Make:                  "Volkswagen",
		Model:                 "Passat",
		Price:                 models.IntPtr(18990),
		Mileage:               models.IntPtr(45000),
		Year:                  models.IntPtr(2021),
		BodyType:              "Station wagon",
		CarType:               "Used",
		Seats:                 models.IntPtr(5),
		Doors:                 models.IntPtr(5),
		CountryVersion:        "Germany",
		OfferNumber:           "1384-146",
		Warranty:              "12 months",
		VehicleMileage:        models.IntPtr(45000),
		FirstRegistration:     "03/2021",
		GeneralInspection:     "New",
		PreviousOwner:         models.IntPtr(1),
		FullServiceHistory:    "Yes",
		NonSmokerVehicle:      "",
		Power:                 "110 kW (150 hp)",
		Gearbox:               "Automatic",
		EngineSize:            "1,968 cc",
		EmissionClass:         "Euro 6d",
		EmissionSticker:       "4 (Green)",
		FuelType:              "Diesel",
		AndroidAuto:           true,
		CarPlay:               true,
		AdaptiveCruiseControl: true,
		ImageURL:              "http://example.test/img/1.jpg",
		ScrapedAt:             time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	}
}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write([]*models.CarListing{sampleCar()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "url" || records[0][1] != "make" {
		t.Fatalf("unexpected header: %v", records[0])
	}
}

func TestBatchFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "filtered_cars_standard.csv")

	sparse := &models.CarListing{
		URL:   "http://example.test/offers/sparse",
		Make:  "Kia",
		Model: "Ceed",
	}
	want := []*models.CarListing{sampleCar(), sparse}
	if err := WriteBatchFile(path, want); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	got, err := ReadBatchFile(path)
	if err != nil {
		t.Fatalf("read batch: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBatchRequiresColumns(t *testing.T) {
	_, err := ReadBatch(strings.NewReader("url,make\nhttp://x,VW\n"))
	if err == nil || !strings.Contains(err.Error(), "model") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestReadBatchCoercesLooseCells(t *testing.T) {
	data := "url,make,model,price,mileage,year,seat_heating,power\n" +
		"http://x/1,VW,Golf,12.345€,\"123,456km\",01-2020,Yes,85 kW\n" +
		"http://x/2,VW,Polo,notanumber,,,no,\n"

	cars, err := ReadBatch(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read batch: %v", err)
	}
	if len(cars) != 2 {
		t.Fatalf("cars=%d, want 2", len(cars))
	}
	if *cars[0].Price != 12345 || *cars[0].Mileage != 123456 || *cars[0].Year != 2020 {
		t.Fatalf("unexpected coercion: %+v", cars[0])
	}
	if !cars[0].SeatHeating || cars[1].SeatHeating {
		t.Fatalf("boolean coercion mismatch")
	}
	if cars[1].Price != nil || cars[1].Year != nil {
		t.Fatalf("unparsable cells should be nil: %+v", cars[1])
	}
}

func TestLoadBatchDirConcatenatesAndDedupes(t *testing.T) {
	dir := t.TempDir()
	a := sampleCar()
	b := &models.CarListing{URL: "http://example.test/offers/b", Make: "Audi", Model: "A4"}
	dupe := sampleCar()
	dupe.Price = models.IntPtr(1)

	if err := WriteBatchFile(filepath.Join(dir, "filtered_cars_age.csv"), []*models.CarListing{a}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteBatchFile(filepath.Join(dir, "filtered_cars_price.csv"), []*models.CarListing{dupe, b}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	cars, err := LoadBatchDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(cars) != 2 {
		t.Fatalf("cars=%d, want 2", len(cars))
	}
	if *cars[0].Price != 18990 {
		t.Fatalf("first occurrence should win, price=%d", *cars[0].Price)
	}
}

func TestLoadBatchDirEmpty(t *testing.T) {
	if _, err := LoadBatchDir(t.TempDir()); !errors.Is(err, ErrNoBatchFiles) {
		t.Fatalf("expected ErrNoBatchFiles, got %v", err)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]*models.CarListing{sampleCar()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.CarListing
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "cars.csv")
	jsonPath := filepath.Join(dir, "cars.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.CarListing{sampleCar()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestCSVWriterPublishesOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, BatchFileName("age"))

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if err := writer.Write([]*models.CarListing{sampleCar()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("batch visible before close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate open batch: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate published batch: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "filtered_cars_age.csv" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v", names)
	}
}

func TestNewOutputWriterFormats(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, BatchFileName("price"))

	tests := []struct {
		format string
		files  []string
	}{
		{format: "csv", files: []string{"filtered_cars_price.csv"}},
		{format: "json", files: []string{"filtered_cars_price.jsonl"}},
		{format: "dual", files: []string{"filtered_cars_price.csv", "filtered_cars_price.jsonl"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			for _, name := range tt.files {
				os.Remove(filepath.Join(dir, name))
			}
			w, err := NewOutputWriter(tt.format, base)
			if err != nil {
				t.Fatalf("new writer: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			for _, name := range tt.files {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Fatalf("expected %s: %v", name, err)
				}
			}
		})
	}

	if _, err := NewOutputWriter("xml", base); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
