package remote

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/trezcool/coursehub/core"
)

// decode maps a raw record onto `out`, a pointer to a record struct tagged with `mapstructure`.
// Values are weakly typed: the service may send numbers as strings and the other way around.
func decode(rec Record, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(stringToTimeHook, listToStringHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err = dec.Decode(map[string]interface{}(rec)); err != nil {
		return core.NewRequestFailedError("invalid record", err)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// stringToTimeHook parses RFC 3339 dates; blank ones are the zero time.
func stringToTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}

// listToStringHook joins list values sent for comma-separated fields (eg. Tags).
func listToStringHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Slice || to.Kind() != reflect.String {
		return data, nil
	}
	v := reflect.ValueOf(data)
	parts := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		parts = append(parts, strings.TrimSpace(toString(v.Index(i).Interface())))
	}
	return strings.Join(parts, ","), nil
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}

// splitList splits a comma-separated field.
func splitList(s string) []string {
	return core.CleanStrings(strings.Split(s, ","))
}

func joinList(ss []string) string {
	return strings.Join(ss, ",")
}

func splitInts(s string) []int {
	parts := splitList(s)
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.Atoi(p); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func joinInts(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return joinList(parts)
}

// lookup is a lookup by a single field, newest first.
func lookup(fields []string, fld string, val interface{}) Query {
	return Query{
		Fields:  fields,
		Where:   []Where{equalTo(fld, val)},
		OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}},
	}
}
