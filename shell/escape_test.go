package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLeavesQuotedInputAlone(t *testing.T) {
	assert.Equal(t, "'should be left untouched'", Escape("'should be left untouched'"))
	assert.Equal(t, "\"already quoted\"", Escape("\"already quoted\""))
}

func TestEscapeLeavesPlainInputAlone(t *testing.T) {
	assert.Equal(t, "harmless", Escape("harmless"))
	assert.Equal(t, "v1.2-rc3", Escape("v1.2-rc3"))
	assert.Equal(t, "", Escape(""))
}

func TestEscapeWrapsAndEscapesSpecials(t *testing.T) {
	assert.Equal(t, "\"should escape this \\\" quote\"", Escape("should escape this \" quote"))
	assert.Equal(t, "\"should escape this \\$ dollar\"", Escape("should escape this $ dollar"))
	assert.Equal(t, "\"should escape this \\` backtick\"", Escape("should escape this ` backtick"))
}

// Characters that are special outside double quotes but neutralized by them
// are not individually escaped; the wrapping quotes are enough.
func TestEscapeOnlyWraps(t *testing.T) {
	assert.Equal(t, "\"onlywrap this\"", Escape("onlywrap this"))
	assert.Equal(t, "\"a|b;c>d\"", Escape("a|b;c>d"))
	assert.Equal(t, "\"it's fine\"", Escape("it's fine"))
}
