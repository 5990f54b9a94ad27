package payments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// ErrMissingHeader is returned when a CSV input does not start with its
// "type, client, tx, amount" header.
var ErrMissingHeader = errors.New("csv header missing")

// DecodeCSV decodes events from CSV rows:
//
//	type, client, tx, amount
//	deposit, 1, 1, 1.0
//	dispute, 1, 1,
//
// The header is required. Spaces around fields are ignored and the amount
// column may be left out of dispute, resolve and chargeback rows.
//
// Invalid rows are yielded as *DecodeError and decoding goes on. A missing
// header or a read failure ends the stream.
func DecodeCSV(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		cr.ReuseRecord = true

		header, err := cr.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("reading csv header: %w", err))
			return
		}
		if !strings.EqualFold(strings.TrimSpace(header[0]), "type") {
			yield(nil, ErrMissingHeader)
			return
		}

		for {
			record, err := cr.Read()
			if err == io.EOF {
				return
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if !yield(nil, &DecodeError{Line: pe.Line, Err: fmt.Errorf("%w: %v", ErrMalformedEvent, pe.Err)}) {
					return
				}
				continue
			}
			if err != nil {
				yield(nil, fmt.Errorf("reading csv: %w", err))
				return
			}

			line, _ := cr.FieldPos(0)
			if len(record) < 3 {
				if !yield(nil, &DecodeError{Line: line, Err: fmt.Errorf("%w: expected at least 3 fields, got %d", ErrMalformedEvent, len(record))}) {
					return
				}
				continue
			}
			var amount string
			if len(record) > 3 {
				amount = strings.TrimSpace(record[3])
			}
			e, de := buildEvent(record[0], record[1], record[2], amount)
			if de != nil {
				de.Line = line
				if !yield(nil, de) {
					return
				}
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// EncodeCSV writes the snapshot as CSV:
//
//	client,available,held,total,locked
//	1,1.5,0,1.5,false
func EncodeCSV(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for a := range s.Accounts() {
		err := cw.Write([]string{
			strconv.FormatUint(uint64(a.Client), 10),
			a.Available.String(),
			a.Held.String(),
			a.Total().String(),
			strconv.FormatBool(a.Locked),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
