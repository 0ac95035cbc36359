package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flownco2789-ui/codeai/internal/dto"
)

func TestValidatorPhoneTag(t *testing.T) {
	v := NewValidator()
	type form struct {
		Phone string `validate:"phone"`
	}
	assert.NoError(t, v.Struct(form{Phone: "010-1234-5678"}))
	assert.NoError(t, v.Struct(form{Phone: "0311234567"}))
	assert.Error(t, v.Struct(form{Phone: "010-123"}))
	assert.Error(t, v.Struct(form{Phone: "010-1234-56789"}))
}

func TestValidatorSubjectsTag(t *testing.T) {
	v := NewValidator()
	base := dto.CreateStudentApplicationRequest{Name: "Kim", Phone: "01012345678", Mode: "REMOTE"}

	ok := base
	ok.Subjects = []string{"Python", "Algorithms"}
	assert.NoError(t, v.Struct(ok))

	empty := base
	empty.Subjects = []string{}
	assert.Error(t, v.Struct(empty))

	blank := base
	blank.Subjects = []string{"Python", "  "}
	assert.Error(t, v.Struct(blank))

	tooMany := base
	tooMany.Subjects = []string{"a", "b", "c", "d", "e", "f"}
	assert.Error(t, v.Struct(tooMany))
}

func TestValidatorRejectsUnknownMode(t *testing.T) {
	v := NewValidator()
	req := dto.CreateStudentApplicationRequest{Name: "Kim", Phone: "01012345678", Subjects: []string{"Go"}, Mode: "ZOOM"}
	assert.Error(t, v.Struct(req))
}
