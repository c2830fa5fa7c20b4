package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apexkudos/kudos/internal/apperror"
)

func TestCoreValue_CreateListDelete(t *testing.T) {
	store := newMemStore()
	svc := NewCoreValueService(store, discardLogger())
	ctx := context.Background()

	cv, err := svc.Create(ctx, "  Above and Beyond ", " Going the extra mile ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if cv.Name != "Above and Beyond" || cv.Description != "Going the extra mile" {
		t.Errorf("Create() = %+v, want trimmed fields", cv)
	}

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].ID != cv.ID {
		t.Fatalf("List() = %+v, want the new value", list)
	}

	if err := svc.Delete(ctx, cv.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, _ = svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("List() after delete = %+v, want empty", list)
	}

	if err := svc.Delete(ctx, cv.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCoreValue_CreateValidation(t *testing.T) {
	svc := NewCoreValueService(newMemStore(), discardLogger())

	for _, name := range []string{"", "   ", strings.Repeat("n", MaxNameLength+1)} {
		if _, err := svc.Create(context.Background(), name, ""); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(%q) error = %v, want ErrValidation", name, err)
		}
	}
}

func TestCoreValue_FindByName(t *testing.T) {
	store := newMemStore()
	svc := NewCoreValueService(store, discardLogger())
	aab, _ := svc.Create(context.Background(), "Above and Beyond", "")

	tests := []struct {
		tag     string
		wantID  int64
		wantErr error
	}{
		{tag: "#AboveAndBeyond", wantID: aab.ID},
		{tag: "above", wantID: aab.ID},
		{tag: "#", wantErr: apperror.ErrValidation},
		{tag: "#Integrity", wantErr: apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := svc.FindByName(context.Background(), tt.tag)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FindByName() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindByName() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("FindByName() id = %d, want %d", got.ID, tt.wantID)
			}
		})
	}
}
