package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	cases := map[string]Answer{"y": AnswerYes, "Yes": AnswerYes, " n ": AnswerNo, "NO": AnswerNo}
	for raw, want := range cases {
		got, err := ParseAnswer(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Errorf("parse %q = %q, want %q", raw, got, want)
		}
	}
	for _, raw := range []string{"", "-", "maybe"} {
		if _, err := ParseAnswer(raw); !errors.Is(err, ErrInvalidAnswer) {
			t.Errorf("parse %q: expected ErrInvalidAnswer, got %v", raw, err)
		}
	}
}

func TestAnsweredResultScoreCountsYesOnly(t *testing.T) {
	res := AnsweredResult(map[string]Answer{"1": AnswerYes, "2": AnswerNo, "3": AnswerDependencySkipped})
	if res.Skipped() {
		t.Fatalf("answered result reported skipped")
	}
	if res.Score() != 1 {
		t.Fatalf("score = %d, want 1", res.Score())
	}
}

func TestAnswerRecordInterchangeFormat(t *testing.T) {
	rec := AnswerRecord{
		"m1": AnsweredResult(map[string]Answer{"1": AnswerYes, "2": AnswerNo, "3": AnswerDependencySkipped}),
		"m2": SkippedResult(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"m1":{"answers":{"1":"y","2":"n","3":"-"},"score":1},"m2":{"skipped":true}}`
	if string(data) != want {
		t.Fatalf("marshal = %s, want %s", data, want)
	}

	var decoded AnswerRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded["m2"].Skipped() || decoded["m1"].Score() != 1 {
		t.Fatalf("unexpected decoded record %+v", decoded)
	}
}

func TestRuleResultRejectsInconsistentRecords(t *testing.T) {
	bad := []string{
		`{"skipped":true,"answers":{"1":"y"}}`,
		`{"answers":{"1":"y","2":"y"},"score":1}`,
		`{"answers":{"1":"x"},"score":0}`,
		`{"score":0}`,
	}
	for _, raw := range bad {
		var res RuleResult
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	answers := map[string]Answer{"1": AnswerYes}
	rec := AnswerRecord{"m1": AnsweredResult(answers)}
	answers["1"] = AnswerNo

	clone := rec.Clone()
	clone["m2"] = SkippedResult()
	if _, ok := rec["m2"]; ok {
		t.Fatalf("clone shares map with original")
	}
	if a, _ := rec["m1"].Answer("1"); a != AnswerYes {
		t.Fatalf("result aliased caller map, got %q", a)
	}
}
