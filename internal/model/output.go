package model

// Field is one key/value entry of a Record. Records are ordered mappings —
// represented as a slice rather than a map — because both storage order
// and duplicate keys (a processor may legitimately emit the same key
// twice) matter downstream.
type Field struct {
	Key   string
	Value ValueHolder
}

// Record is an ordered sequence of key -> ValueHolder entries produced by
// a single processor invocation.
type Record []Field

// Get returns the first value stored under key, if any.
func (r Record) Get(key string) (ValueHolder, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return ValueHolder{}, false
}

// Output is the result of one successful processor invocation.
type Output struct {
	Source    Source
	StartedBy Source
	Input     string
	Data      []Record
	Timestamp int64 // epoch ms
}

// StoredField is a Field whose value has been flattened to a plain string
// once the engine has consumed its crawlability for frontier routing.
type StoredField struct {
	Key   string
	Value string
}

// StoredRecord is the context-resident counterpart of Record.
type StoredRecord []StoredField

// Get returns the first value stored under key, if any.
func (r StoredRecord) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// StoredOutput is the context-entry counterpart of Output: same shape,
// but Data holds plain strings since crawlability only matters once, at
// commit time.
type StoredOutput struct {
	Source    Source
	StartedBy Source
	Input     string
	Data      []StoredRecord
	Timestamp int64
}

// Store flattens an Output into a StoredOutput, dropping crawlability.
func (o Output) Store() StoredOutput {
	data := make([]StoredRecord, len(o.Data))
	for i, rec := range o.Data {
		stored := make(StoredRecord, len(rec))
		for j, f := range rec {
			stored[j] = StoredField{Key: f.Key, Value: f.Value.Value}
		}
		data[i] = stored
	}
	return StoredOutput{
		Source:    o.Source,
		StartedBy: o.StartedBy,
		Input:     o.Input,
		Data:      data,
		Timestamp: o.Timestamp,
	}
}
