package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathClassifier_PrefixMode(t *testing.T) {
	c := NewPathClassifier(DefaultPublicPaths, MatchPrefix)
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/login", true},
		{"/login/whatever", true},
		{"/loginhelp", true},
		{"/login-promo", true},
		{"/signup", true},
		{"/forgot-password", true},
		{"/api/auth/login", true},
		{"/api/auth/signup", true},
		{"/api/auth/logout", false},
		{"/dashboard", false},
		{"/listings/42", false},
		{"", false},
		{"login", false},
		{"//", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsPublic(tt.path))
		})
	}
}

func TestPathClassifier_SegmentMode(t *testing.T) {
	c := NewPathClassifier(DefaultPublicPaths, MatchSegment)
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/login", true},
		{"/login/", true},
		{"/login/whatever", true},
		{"/loginhelp", false},
		{"/login-promo", false},
		{"/signupx", false},
		{"/dashboard", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsPublic(tt.path))
		})
	}
}

func TestPathClassifier_IgnoresBadEntries(t *testing.T) {
	c := NewPathClassifier([]string{"", "dashboard", "/help/"}, MatchSegment)
	assert.Equal(t, []string{"/help/"}, c.Prefixes())
	assert.False(t, c.IsPublic("/dashboard"))
	assert.True(t, c.IsPublic("/help/faq"))
	assert.False(t, c.IsPublic("/anything"))
}

func TestPathClassifier_PrefixesIsCopy(t *testing.T) {
	c := NewPathClassifier([]string{"/a"}, MatchPrefix)
	got := c.Prefixes()
	got[0] = "/b"
	assert.True(t, c.IsPublic("/a"))
	assert.False(t, c.IsPublic("/b"))
}

func TestParseMatchMode(t *testing.T) {
	m, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchPrefix, m)

	m, err = ParseMatchMode(" Segment ")
	require.NoError(t, err)
	assert.Equal(t, MatchSegment, m)
	assert.Equal(t, "segment", m.String())

	_, err = ParseMatchMode("regex")
	assert.Error(t, err)
}

func TestExclusionMatcher(t *testing.T) {
	m := NewExclusionMatcher(DefaultExcludedPrefixes)
	tests := []struct {
		path string
		want bool
	}{
		{"/static/app.js", true},
		{"/image/logo.png", true},
		{"/favicon.ico", true},
		{"/public/robots.txt", true},
		{"/api/locations", true},
		{"/api/categories/phones", true},
		{"/api/auth/login", false},
		{"/api/authority", false},
		{"/api", false},
		{"/dashboard", false},
		{"/", false},
		{"/publicity", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Excluded(tt.path))
		})
	}
}
