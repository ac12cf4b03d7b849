package errors

import (
	stderrs "errors"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// clickhouse server exception codes that mean "try again later"
const (
	chTimeoutExceeded     int32 = 159
	chTooManySimultaneous int32 = 202
	chMemoryLimitExceeded int32 = 241
)

// ExtractCHException finds a clickhouse server exception in err
func ExtractCHException(err error) (*clickhouse.Exception, bool) {
	var ex *clickhouse.Exception
	if stderrs.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// FromClickhouse codes a clickhouse error. Overload is unavailable, the
// rest is a db error
func FromClickhouse(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	if ex, ok := ExtractCHException(err); ok {
		switch ex.Code {
		case chTimeoutExceeded, chTooManySimultaneous, chMemoryLimitExceeded:
			code = ErrorCodeUnavailable
		}
	}
	return Wrap(err, code, msg)
}
