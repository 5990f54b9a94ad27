package payments

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/PaesslerAG/jsonpath"
)

// DecodeEvent decodes a single JSON event like
//
//	{"type":"deposit","client":1,"tx":1,"amount":1.5}
//
// Numbers may also be given as strings. Problems are reported as *DecodeError.
func DecodeEvent(data []byte) (Event, error) {
	var raw struct {
		Type   string          `json:"type"`
		Client json.Number     `json:"client"`
		Tx     json.Number     `json:"tx"`
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedEvent, err)}
	}

	amount := string(bytes.Trim(raw.Amount, `"`))
	if amount == "null" {
		amount = ""
	}
	e, de := buildEvent(raw.Type, raw.Client.String(), raw.Tx.String(), amount)
	if de != nil {
		return nil, de
	}
	return e, nil
}

// buildEvent parses the textual fields of an event. The amount is only read
// for deposits and withdrawals.
func buildEvent(typ, client, tx, amount string) (Event, *DecodeError) {
	de := &DecodeError{}
	var err error
	if de.Type, err = ParseEventType(typ); err != nil {
		de.Err = err
		return nil, de
	}
	if de.Client, err = ParseClientID(client); err != nil {
		de.Err = err
		return nil, de
	}
	if de.Tx, err = ParseTxID(tx); err != nil {
		de.Err = err
		return nil, de
	}

	var a Amount
	if de.Type.HasAmount() {
		if amount == "" {
			de.Err = fmt.Errorf("%w: missing amount", ErrInvalidAmount)
			return nil, de
		}
		if a, err = ParseAmount(amount); err != nil {
			de.Err = err
			return nil, de
		}
	}
	e, err := NewEvent(de.Type, de.Client, de.Tx, a)
	if err != nil {
		de.Err = err
		return nil, de
	}
	return e, nil
}

// DecodeJSONL decodes a stream of JSON events, one per line. Blank lines are
// skipped.
func DecodeJSONL(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		line := 0
		for scanner.Scan() {
			line++
			b := bytes.TrimSpace(scanner.Bytes())
			if len(b) == 0 {
				continue
			}
			e, err := DecodeEvent(b)
			if de, ok := err.(*DecodeError); ok {
				de.Line = line
			}
			if !yield(e, err) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("reading jsonl: %w", err))
		}
	}
}

// DecodeJSONPath decodes the events selected by a jsonpath expression in a
// single JSON document, for instance "$.transactions[*]". An empty path
// selects the elements of a top level array.
//
// The document is read completely before the first event is yielded.
func DecodeJSONPath(r io.Reader, path string) iter.Seq2[Event, error] {
	if path == "" {
		path = "$[*]"
	}
	return func(yield func(Event, error) bool) {
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			yield(nil, fmt.Errorf("reading json document: %w", err))
			return
		}
		selected, err := jsonpath.Get(path, doc)
		if err != nil {
			yield(nil, fmt.Errorf("evaluating %q: %w", path, err))
			return
		}
		// jsonpath returns a single value for non wildcard paths.
		items, ok := selected.([]any)
		if !ok {
			items = []any{selected}
		}
		for i, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				if !yield(nil, &DecodeError{Line: i + 1, Err: fmt.Errorf("%w: %v", ErrMalformedEvent, err)}) {
					return
				}
				continue
			}
			e, err := DecodeEvent(data)
			if de, ok := err.(*DecodeError); ok {
				de.Line = i + 1
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// EncodeEvent writes e as a single JSON line.
func EncodeEvent(w io.Writer, e Event) error {
	var o jsonObjectWriter
	o.Append("type", e.What())
	o.Append("client", e.ClientID())
	o.Append("tx", e.TxID())
	if amount, ok := amountOf(e); ok {
		o.Append("amount", amount)
	}
	b, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// EncodeJSONL writes one JSON object per account.
func EncodeJSONL(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	for a := range s.Accounts() {
		if err := enc.Encode(a); err != nil {
			return err
		}
	}
	return nil
}
