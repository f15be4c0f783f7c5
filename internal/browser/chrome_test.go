package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'Show More'", xpathLiteral("Show More"))
	assert.Equal(t, `"O'Brien"`, xpathLiteral("O'Brien"))
	assert.Equal(t, `concat('a', "'", 'b"c')`, xpathLiteral(`a'b"c`))
}

func TestLowerXPath(t *testing.T) {
	assert.Equal(t,
		"translate(@aria-label, 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')",
		lowerXPath("@aria-label"),
	)
}

func TestCardsScriptUsesSelectors(t *testing.T) {
	assert.Contains(t, cardsScript, CardSelector[:10])
	assert.Contains(t, cardsScript, "/professor/")
}
