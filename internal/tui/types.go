package tui

type lessonStage int

const (
	lessonStageWorking lessonStage = iota
	lessonStageInput
	lessonStageConfirmReset
	lessonStageDone
)

type authorStage int

const (
	authorStageEditing authorStage = iota
	authorStagePicking
	authorStageCaptioning
	authorStageSubmitting
	authorStageDone
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

const heroTagline = "A tutor in your terminal."

const (
	composerAskPlaceholder    = "Ask the tutor anything, or request an image…"
	composerAnswerPlaceholder = "Type your answer…"
	captionPlaceholder        = "Describe this attachment…"
	titlePlaceholder          = "Chapter title"
)

const thinkingMessage = "Guidee is thinking…"
