package querycache

import "testing"

func TestListKeyIsDeterministic(t *testing.T) {
	a := ListKey(map[string]any{"page": 1, "category": "minuman"})
	b := ListKey(map[string]any{"category": "minuman", "page": 1})
	if a != b {
		t.Fatalf("keys differ: %s vs %s", a, b)
	}
	if a[0] != '{' {
		t.Fatalf("list key should start with '{', got %s", a)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		key  string
		want Category
	}{
		{`{"page":1}`, CategoryList},
		{ItemKey("42"), CategoryItem},
		{"profile_me", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.key); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory(" LIST "); err != nil || c != CategoryList {
		t.Fatalf("got %v %v", c, err)
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
