package store

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestTranslate(t *testing.T) {
	if Translate(nil) != nil {
		t.Error("expected nil for nil")
	}
	if !errors.Is(Translate(mongo.ErrNoDocuments), ErrNotFound) {
		t.Error("expected ErrNotFound for ErrNoDocuments")
	}
	if !errors.Is(Translate(fmt.Errorf("find: %w", mongo.ErrNoDocuments)), ErrNotFound) {
		t.Error("expected ErrNotFound for wrapped ErrNoDocuments")
	}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	if !errors.Is(Translate(dup), ErrDuplicate) {
		t.Error("expected ErrDuplicate for duplicate key write error")
	}
	other := errors.New("boom")
	if Translate(other) != other {
		t.Error("expected other errors to pass through")
	}
}
