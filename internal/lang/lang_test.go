package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"zh", ModeZH},
		{"ZH ", ModeZH},
		{"en", ModeEN},
		{"En", ModeEN},
		{"auto", ModeAuto},
		{"", ModeAuto},
		{"french", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMode(tt.in), "input %q", tt.in)
	}
}

func TestIsChineseAndIsEnglish(t *testing.T) {
	assert.True(t, IsChinese("zh-Hans"))
	assert.True(t, IsChinese("ZH-Hant"))
	assert.True(t, IsChinese("yue"))
	assert.True(t, IsChinese("Chinese (Simplified)"))
	assert.False(t, IsChinese("en-us"))

	assert.True(t, IsEnglish("en"))
	assert.True(t, IsEnglish("EN-GB"))
	assert.True(t, IsEnglish("American English"))
	assert.False(t, IsEnglish("zh"))
}

func TestContainsChinese(t *testing.T) {
	assert.True(t, ContainsChinese("数据库入门"))
	assert.True(t, ContainsChinese("mixed 标题 text"))
	assert.False(t, ContainsChinese("plain ascii title"))
	assert.False(t, ContainsChinese(""))
}

func TestLooksLikeEnglish(t *testing.T) {
	assert.True(t, LooksLikeEnglish("A proper English sentence about databases."))
	assert.False(t, LooksLikeEnglish("这是一个中文标题"))
	assert.False(t, LooksLikeEnglish("第一章 介绍 with two words"))
	assert.False(t, LooksLikeEnglish(""))
	assert.False(t, LooksLikeEnglish("1234 5678"))
}

func TestPreferEnglishPriority(t *testing.T) {
	// Explicit mode wins over everything.
	assert.True(t, PreferEnglish("en", []string{"全中文标题"}, false, "zh"))
	assert.False(t, PreferEnglish("zh", []string{"All English Title"}, true, "en"))

	// Audio hint beats text analysis.
	assert.True(t, PreferEnglish("auto", []string{"全中文标题"}, false, "en"))
	assert.False(t, PreferEnglish("auto", []string{"All English Title"}, true, "zh-Hans"))

	// Text analysis beats the fallback.
	assert.True(t, PreferEnglish("auto", []string{"An English description"}, false, ""))
	assert.False(t, PreferEnglish("auto", []string{"中文简介"}, false, ""))

	// Fallback applies when nothing else decides.
	assert.True(t, PreferEnglish("auto", nil, true, ""))
	assert.False(t, PreferEnglish("auto", nil, false, "eo"))
}

func TestSubtitleLangOrder(t *testing.T) {
	chineseFirst := SubtitleLangOrder(false, true)
	assert.Equal(t, "zh-Hans", chineseFirst[0])
	assert.Contains(t, chineseFirst, "en")

	englishOnly := SubtitleLangOrder(true, false)
	assert.Equal(t, EnglishLangs, englishOnly)

	englishFirst := SubtitleLangOrder(true, true)
	assert.Equal(t, "en", englishFirst[0])
	assert.Contains(t, englishFirst, "zh-Hans")

	seen := map[string]int{}
	for _, l := range englishFirst {
		seen[l]++
	}
	for l, n := range seen {
		assert.Equal(t, 1, n, "duplicate language %s", l)
	}
}
