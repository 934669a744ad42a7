package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/liferpg/internal/types"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

// --- Primitive validators ---

func TestValidateUTF8(t *testing.T) {
	if err := ValidateUTF8("title", "Hello, 世界"); err != nil {
		t.Errorf("ValidateUTF8(valid) = %v, want nil", err)
	}
	err := ValidateUTF8("title", string([]byte{0xff, 0xfe}))
	if err == nil || err.Field != "title" {
		t.Errorf("ValidateUTF8(invalid) = %v, want error on title", err)
	}
}

func TestValidateNoNullBytes(t *testing.T) {
	if err := ValidateNoNullBytes("title", "clean"); err != nil {
		t.Errorf("ValidateNoNullBytes(clean) = %v", err)
	}
	if err := ValidateNoNullBytes("title", "a\x00b"); err == nil {
		t.Error("ValidateNoNullBytes(with null) = nil, want error")
	}
}

func TestValidateMaxLength_CountsRunes(t *testing.T) {
	if err := ValidateMaxLength("title", strings.Repeat("👋", 200), 200); err != nil {
		t.Errorf("200 emoji at max 200 = %v, want nil", err)
	}
	if err := ValidateMaxLength("title", strings.Repeat("a", 201), 200); err == nil {
		t.Error("201 chars at max 200 = nil, want error")
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"Skydiving", false},
		{"", true},
		{"   \t", true},
	}
	for _, tt := range tests {
		err := ValidateRequired("title", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRequired(%q) = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		value   int
		wantErr bool
	}{
		{0, false},
		{50, false},
		{MaxQuestXP, false},
		{-1, true},
		{MaxQuestXP + 1, true},
	}
	for _, tt := range tests {
		err := ValidateRange("xp", tt.value, 0, MaxQuestXP)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRange(%d) = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"builtin", "q1", false},
		{"ulid", "01ARZ3NDEKTSV4RRFFQ69G5FAV", false},
		{"prefixed", "bonus-01ARZ3NDEKTSV4RRFFQ69G5FAV", false},
		{"empty", "", true},
		{"slash", "q1/../q2", true},
		{"space", "q 1", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("id", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() {
		t.Fatal("nil error was collected")
	}
	c.Add(&ValidationError{Field: "a", Message: "bad"})
	c.Add(&ValidationError{Field: "b", Message: "worse"})
	if !c.HasErrors() || len(c.Errors()) != 2 {
		t.Errorf("Errors = %+v", c.Errors())
	}
}

// --- Request validators ---

func TestValidateNewQuest(t *testing.T) {
	tests := []struct {
		name       string
		in         types.NewQuest
		wantFields []string
	}{
		{"valid", types.NewQuest{Title: "Learn Go", Category: "Skills", XP: 50}, nil},
		{"blank title", types.NewQuest{Title: " ", XP: 10}, []string{"title"}},
		{"negative xp", types.NewQuest{Title: "A", XP: -5}, []string{"xp"}},
		{"long category", types.NewQuest{Title: "A", Category: strings.Repeat("c", MaxCategoryLength+1)}, []string{"category"}},
		{"several", types.NewQuest{Title: "", XP: -1}, []string{"title", "xp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateNewQuest(tt.in)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("errors = %+v, want fields %v", errs, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestValidateQuestPatch(t *testing.T) {
	tests := []struct {
		name      string
		patch     types.QuestPatch
		wantCount int
	}{
		{"empty patch", types.QuestPatch{}, 1},
		{"completion only", types.QuestPatch{Completed: boolPtr(true)}, 0},
		{"blank title", types.QuestPatch{Title: strPtr("")}, 1},
		{"negative xp", types.QuestPatch{XP: intPtr(-10)}, 1},
		{"valid fields", types.QuestPatch{Title: strPtr("New"), Category: strPtr("Fun"), XP: intPtr(5), Private: boolPtr(true)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateQuestPatch(tt.patch)
			if len(errs) != tt.wantCount {
				t.Errorf("errors = %+v, want %d", errs, tt.wantCount)
			}
		})
	}
}

func TestValidateBonus(t *testing.T) {
	if errs := ValidateBonus("Ran a marathon", 200); len(errs) != 0 {
		t.Errorf("valid bonus: %+v", errs)
	}
	if errs := ValidateBonus("", -1); len(errs) != 2 {
		t.Errorf("invalid bonus errors = %+v, want 2", errs)
	}
}

func TestValidatePIN(t *testing.T) {
	if errs := ValidatePIN("pin", "1234"); len(errs) != 0 {
		t.Errorf("ValidatePIN(1234) = %+v", errs)
	}
	if errs := ValidatePIN("pin", ""); len(errs) != 1 || errs[0].Field != "pin" {
		t.Errorf("ValidatePIN(empty) = %+v", errs)
	}
	if errs := ValidatePIN("pin", strings.Repeat("9", MaxPINLength+1)); len(errs) != 1 {
		t.Errorf("ValidatePIN(too long) = %+v", errs)
	}
}

func TestJoin(t *testing.T) {
	if err := Join(nil); err != nil {
		t.Errorf("Join(nil) = %v", err)
	}
	err := Join([]ValidationError{
		{Field: "title", Message: "is required"},
		{Field: "xp", Message: "must be between 0 and 1000000"},
	})
	if err == nil || err.Error() != "title is required; xp must be between 0 and 1000000" {
		t.Errorf("Join() = %v", err)
	}
}
