package psql

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type (
	timestamps struct {
		CreatedAt time.Time `column:"created_at"`
		UpdatedAt time.Time
	}

	modelTestStruct struct {
		ID int `column:"id,pk"`
		timestamps
		DisplayName string
		Room        string `column:"room_code"`
		Ignored     string `column:"-"`
		hidden      string
	}
)

func TestColumns(t *testing.T) {
	t.Parallel()
	got, err := Columns(modelTestStruct{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"id", "created_at", "updated_at", "display_name", "room_code"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}

	gotPtr, err := Columns(&modelTestStruct{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotPtr, want) {
		t.Errorf("Columns(&) = %v, want %v", gotPtr, want)
	}
}

func TestColumnsErrors(t *testing.T) {
	t.Parallel()
	if _, err := Columns(nil); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Columns(nil) error = %v", err)
	}
	if _, err := Columns(3); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Columns(3) error = %v", err)
	}
	type unsafeTag struct {
		Name string `column:"name\"--"`
	}
	var unsafe *UnsafeIdentifierError
	if _, err := Columns(unsafeTag{}); !errors.As(err, &unsafe) {
		t.Errorf("Columns(unsafeTag) error = %v", err)
	}
}

func TestShapeIsCached(t *testing.T) {
	t.Parallel()
	rt := reflect.TypeOf(modelTestStruct{})
	if shapeOf(rt) != shapeOf(rt) {
		t.Error("shapeOf should return the cached shape")
	}
}

func TestQueryAllNeedsStruct(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	if _, err := QueryAll[int](context.Background(), ex, "SELECT 1"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("QueryAll[int] error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNoConnection(t *testing.T) {
	t.Parallel()
	ex := &Executor{}
	if _, err := ex.Exec(context.Background(), "SELECT 1"); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Exec error = %v", err)
	}
	if _, err := NewReadonly[modelTestStruct](ex, "rooms").FindMany(context.Background(), Query{}); !errors.Is(err, ErrNoConnection) {
		t.Errorf("FindMany error = %v", err)
	}
	if err := ex.Close(); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Close error = %v", err)
	}
}
