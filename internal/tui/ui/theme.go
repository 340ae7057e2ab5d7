package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	SelfColor         tcell.Color
	OtherColor        tcell.Color
	MutedColor        tcell.Color
	UnseenColor       tcell.Color
	IndicatorColor    tcell.Color
	PopupGenericColor tcell.Color
	PopupMessageColor tcell.Color
	PopupFadeColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
	StateOpenColor    tcell.Color
	StatePendingColor tcell.Color
	StateClosedColor  tcell.Color
}

// DefaultTheme returns a dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		SelfColor:         tcell.ColorMediumSeaGreen,
		OtherColor:        tcell.ColorLightSkyBlue,
		MutedColor:        tcell.ColorGray,
		UnseenColor:       tcell.ColorOrange,
		IndicatorColor:    tcell.ColorRed,
		PopupGenericColor: tcell.ColorNavajoWhite,
		PopupMessageColor: tcell.ColorAqua,
		PopupFadeColor:    tcell.ColorDimGray,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
		StateOpenColor:    tcell.ColorGreen,
		StatePendingColor: tcell.ColorYellow,
		StateClosedColor:  tcell.ColorRed,
	}
}

// Hex returns c as a tview color tag value.
func Hex(c tcell.Color) string {
	return colorName(c)
}
