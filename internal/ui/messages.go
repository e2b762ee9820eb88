package ui

// Screen represents the current active screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenSignup
	ScreenDashboard
)

// String returns the display name for a screen
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "Login"
	case ScreenSignup:
		return "Sign Up"
	case ScreenDashboard:
		return "Dashboard"
	default:
		return "Unknown"
	}
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}
