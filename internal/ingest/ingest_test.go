package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestReadValidCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Restaurant,Reviewer,Review,Rating,Metadata,Time,Pictures",
		`Beyond Flavours,Rusha,"Great ambience, good food",5,"2 Reviews , 3 Followers",5/25/2019 15:54,0`,
		"Paradise,Anusha,Decent biryani,4,,6/1/2019 12:00,2",
	}, "\n")

	records, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Read() returned %d records, want 2", len(records))
	}

	first := records[0]
	if first.Restaurant != "Beyond Flavours" {
		t.Errorf("Restaurant = %q, want %q", first.Restaurant, "Beyond Flavours")
	}
	if first.Review != "Great ambience, good food" {
		t.Errorf("Review = %q, want quoted text preserved", first.Review)
	}
	if first.Metadata != "2 Reviews , 3 Followers" {
		t.Errorf("Metadata = %q", first.Metadata)
	}
	if records[1].Metadata != "" {
		t.Errorf("empty metadata cell should stay empty, got %q", records[1].Metadata)
	}
}

func TestReadHeaderHandling(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{
			name:   "whitespace in header names",
			header: " Restaurant , Reviewer , Review , Rating , Time ",
		},
		{
			name:   "case-insensitive match",
			header: "restaurant,REVIEWER,review,rating,time",
		},
		{
			name:   "unnamed garbage column ignored",
			header: "Unnamed: 0,Restaurant,Reviewer,Review,Rating,Time",
		},
		{
			name:    "missing rating column",
			header:  "Restaurant,Reviewer,Review,Time",
			wantErr: true,
		},
		{
			name:    "missing everything",
			header:  "foo,bar",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.header + "\n"))
			if tt.wantErr {
				if !errors.Is(err, ErrSchema) {
					t.Errorf("Read() error = %v, want ErrSchema", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Read() unexpected error = %v", err)
			}
		})
	}
}

func TestReadShortRows(t *testing.T) {
	csv := "Restaurant,Reviewer,Review,Rating,Time\nParadise,Anusha,Good\n"

	records, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Read() returned %d records, want 1", len(records))
	}
	if records[0].Rating != "" || records[0].Time != "" {
		t.Errorf("missing trailing cells should read as empty, got rating=%q time=%q",
			records[0].Rating, records[0].Time)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does/not/exist.csv"); err == nil {
		t.Errorf("Load() on a missing file should error")
	}
}
