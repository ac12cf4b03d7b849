package errors

import (
	"fmt"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func TestFromClickhouse(t *testing.T) {
	ex := &clickhouse.Exception{Code: chTimeoutExceeded, Message: "Timeout exceeded"}
	err := FromClickhouse(fmt.Errorf("query: %w", ex), "aggregate job runs")
	if !IsCode(err, ErrorCodeUnavailable) {
		t.Fatalf("timeout = %v, want unavailable", err)
	}
	if got, ok := ExtractCHException(err); !ok || got != ex {
		t.Fatalf("ExtractCHException = %v %v", got, ok)
	}

	if FromClickhouse(nil, "x") != nil {
		t.Fatalf("nil in, nil out")
	}
	for _, raw := range []error{fmt.Errorf("socket closed"), &clickhouse.Exception{Code: 60}} {
		if err := FromClickhouse(raw, "list"); !IsCode(err, ErrorCodeDB) {
			t.Errorf("%v: got %v, want db", raw, err)
		}
	}
}
