package validate

import "testing"

type turn struct {
	Role    string `validate:"chat_role"`
	Content string `validate:"max=10"`
}

type request struct {
	UserID  int64  `validate:"gt=0"`
	Message string `validate:"notblank"`
	Turns   []turn `validate:"dive"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name    string
		in      request
		wantErr bool
	}{
		{name: "valid", in: request{UserID: 1, Message: "hi", Turns: []turn{{Role: "user", Content: "a"}}}},
		{name: "missing user", in: request{Message: "hi"}, wantErr: true},
		{name: "blank message", in: request{UserID: 1, Message: "   "}, wantErr: true},
		{name: "bad role", in: request{UserID: 1, Message: "hi", Turns: []turn{{Role: "system"}}}, wantErr: true},
		{name: "long content", in: request{UserID: 1, Message: "hi", Turns: []turn{{Role: "assistant", Content: "01234567890"}}}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	if Required(" \t") {
		t.Fatalf("blank string must not pass")
	}
	if !Required("x") {
		t.Fatalf("non-blank string must pass")
	}
}
