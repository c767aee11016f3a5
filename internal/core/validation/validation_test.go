package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	URL        string `validate:"required,url"`
	CategoryID int    `validate:"gt=0"`
	Email      string `validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{URL: "https://youtube.com/@foo", CategoryID: 1}))

	err := Struct(sample{URL: "nope", CategoryID: 0, Email: "x"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "URL: url")
		assert.Contains(t, err.Error(), "CategoryID: gt=0")
		assert.Contains(t, err.Error(), "Email: email")
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "کانال یوتیوب", CleanString("  كانال يوتيوب \n"))
	assert.Equal(t, "می\u200cخواهم", CleanString("می\u200c\u200cخواهم"))
	assert.Equal(t, "می\u200cخواهم", CleanString("می\u200c\u200c\u200cخواهم"))
	assert.Equal(t, "a\u200cb\u200cc", CleanString("a\u200c\u200c\u200c\u200cb\u200cc"))
	assert.Equal(t, []string{"الف", "ب"}, CleanStrings([]string{" الف ", "", "  ", "ب"}))
}
