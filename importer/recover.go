package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrNoArray bedeutet, dass die Modellausgabe keine öffnende Klammer enthält.
	ErrNoArray = errors.New("no JSON array found in model output")
	// ErrNotArray bedeutet, dass zwar JSON geparst wurde, aber kein Array.
	ErrNotArray = errors.New("response is not a JSON array")
	// ErrParse bedeutet, dass alle Reparaturversuche gescheitert sind.
	ErrParse = errors.New("failed to parse JSON")
)

var (
	fenceJSON     = regexp.MustCompile("(?i)```json\\s*")
	fence         = regexp.MustCompile("```\\s*")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	endComma      = regexp.MustCompile(`,\s*$`)
)

// IsolateArray entfernt Code-Fences und Prosa und schneidet auf den äußersten
// [...]-Bereich zu. Abgeschnittene Ausgaben werden am letzten vollständigen
// Objekt geschlossen.
func IsolateArray(raw string) (string, error) {
	t := fenceJSON.ReplaceAllString(raw, "")
	t = strings.TrimSpace(fence.ReplaceAllString(t, ""))

	first := strings.Index(t, "[")
	if first == -1 {
		return "", ErrNoArray
	}
	t = t[first:]
	if strings.Count(t, "[") > strings.Count(t, "]") {
		return salvageTruncated(t), nil
	}
	return t[:strings.LastIndex(t, "]")+1], nil
}

// salvageTruncated schneidet hinter dem letzten vollständigen Element des äußeren
// Arrays ab und schließt es.
func salvageTruncated(t string) string {
	cut := lastTopLevelClose(t)
	if cut == -1 {
		cut = strings.LastIndex(t, "}")
	}
	if cut == -1 {
		return t
	}
	partial := strings.TrimRight(t[:cut+1], " \t\r\n")
	return endComma.ReplaceAllString(partial, "") + "]"
}

// lastTopLevelClose liefert die Position der letzten "}", die ein Element des
// äußeren Arrays schließt, oder -1.
func lastTopLevelClose(t string) int {
	depth := 0
	inString := false
	escaped := false
	last := -1
	for i, r := range t {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			depth--
			if r == '}' && depth == 1 {
				last = i
			}
		}
	}
	return last
}

func stripTrailingCommas(t string) string { return trailingComma.ReplaceAllString(t, "$1") }

func quoteBareKeys(t string) string { return bareKey.ReplaceAllString(t, `$1"$2":`) }

func singleToDouble(t string) string { return strings.ReplaceAll(t, "'", `"`) }

// repairs sind die Parse-Versuche in fester Reihenfolge, vom strikten bis zum
// großzügigsten.
var repairs = []func(string) string{
	func(t string) string { return t },
	stripTrailingCommas,
	quoteBareKeys,
	singleToDouble,
	func(t string) string { return stripTrailingCommas(quoteBareKeys(t)) },
	func(t string) string { return stripTrailingCommas(quoteBareKeys(singleToDouble(t))) },
}

// RecoverArray macht aus einer Modellausgabe ein JSON-Array. Der erste erfolgreiche
// Parse-Versuch gewinnt.
func RecoverArray(raw string) ([]any, error) {
	t, err := IsolateArray(raw)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, repair := range repairs {
		v, err := decodeStrict(repair(t))
		if err != nil {
			lastErr = err
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			return nil, ErrNotArray
		}
		return arr, nil
	}
	return nil, fmt.Errorf("%w. Last error: %v", ErrParse, lastErr)
}

// decodeStrict dekodiert genau einen JSON-Wert, Zahlen bleiben json.Number.
func decodeStrict(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}
