package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntent_CodeDevelopmentKeywordsWin(t *testing.T) {
	c := Intent("please refactor this function and fix the bug in the api")
	assert.Equal(t, CategoryCodeDevelopment, c.Category)
	assert.Greater(t, c.Confidence, scoreThreshold)
}

func TestIntent_DataAnalysisKeywordsWin(t *testing.T) {
	c := Intent("analyze this csv dataset and chart the statistics")
	assert.Equal(t, CategoryDataAnalysis, c.Category)
}

func TestIntent_NoKeywordMatchFallsBackToGeneralChat(t *testing.T) {
	c := Intent("hey how's it going today")
	assert.Equal(t, CategoryGeneralChat, c.Category)
	assert.Equal(t, 1.0, c.Confidence)
}

func TestIntent_EmptyMessageFallsBackToGeneralChat(t *testing.T) {
	c := Intent("")
	assert.Equal(t, CategoryGeneralChat, c.Category)
}

func TestIntent_ScoreIsMatchesOverTotalTokens(t *testing.T) {
	// "debug" and "code" are CODE_DEVELOPMENT keywords out of 5 total tokens.
	c := Intent("please debug this code now")
	assert.Equal(t, CategoryCodeDevelopment, c.Category)
	assert.InDelta(t, 2.0/5.0, c.Confidence, 0.001)
}
