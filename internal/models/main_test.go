package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"education", Education, false},
		{"health", Health, false},
		{"service", Service, false},
		{"transport", Transport, false},
		{"Health", "", true},
		{"", "", true},
		{"../health", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCategory(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCategory) {
					t.Fatalf("ParseCategory(%q) error = %v; want ErrInvalidCategory", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseCategory(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDocumentInfo(t *testing.T) {
	now := time.Now()
	d := &Document{ID: 7, UserID: "alice", Category: Health, Filename: "x.txt", Data: []byte("x"), CreatedAt: now}
	info := d.Info()
	if info.ID != 7 || info.Category != Health || info.Filename != "x.txt" || !info.CreatedAt.Equal(now) {
		t.Errorf("Info() = %+v", info)
	}
}
