package service

import (
	"sort"

	"github.com/kreaite/studio-core/internal/store/model"
)

// WorkflowTemplate is a fixed multi-step pipeline definition. Templates are
// static data: the named service functions are executed by an external
// driver, never by this service.
type WorkflowTemplate struct {
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Steps       []model.WorkflowStep `json:"steps"`
}

// EstimatedCost returns the sum of per-step cost estimates in cents.
func (t WorkflowTemplate) EstimatedCost() int {
	total := 0
	for _, s := range t.Steps {
		total += s.EstimatedCost
	}
	return total
}

// EstimatedDuration returns the sum of per-step duration estimates in seconds.
func (t WorkflowTemplate) EstimatedDuration() int {
	total := 0
	for _, s := range t.Steps {
		total += s.EstimatedDuration
	}
	return total
}

var workflowTemplates = map[string]WorkflowTemplate{
	"book_to_audiobook": {
		Type:        "book_to_audiobook",
		Name:        "Book to Audiobook",
		Description: "Narrate a book with synthetic voices and publish it as an audiobook",
		Steps: []model.WorkflowStep{
			{
				ID:                "extract_chapters",
				Name:              "Extract chapters",
				Type:              "text_processing",
				ServiceFunction:   "bookService.extractChapters",
				InputMapping:      map[string]string{"sourceId": "bookId"},
				OutputMapping:     map[string]string{"chapters": "chapterList"},
				EstimatedDuration: 10,
				EstimatedCost:     0,
			},
			{
				ID:                "generate_narration",
				Name:              "Generate narration",
				Type:              "ai_generation",
				ServiceFunction:   "ttsService.generateNarration",
				InputMapping:      map[string]string{"chapterList": "chapters"},
				OutputMapping:     map[string]string{"audioSegments": "narrationFiles"},
				EstimatedDuration: 300,
				EstimatedCost:     1600,
			},
			{
				ID:                "assemble_audiobook",
				Name:              "Assemble audiobook",
				Type:              "media_processing",
				ServiceFunction:   "audioService.assembleAudiobook",
				InputMapping:      map[string]string{"narrationFiles": "audioSegments"},
				OutputMapping:     map[string]string{"audiobookFile": "masterFile"},
				EstimatedDuration: 45,
				EstimatedCost:     0,
			},
			{
				ID:                "publish_audiobook",
				Name:              "Publish audiobook",
				Type:              "export",
				ServiceFunction:   "publishService.publishAudiobook",
				InputMapping:      map[string]string{"masterFile": "audiobookFile"},
				OutputMapping:     map[string]string{"publicUrl": "audiobookUrl"},
				EstimatedDuration: 15,
				EstimatedCost:     0,
			},
		},
	},
	"book_to_course": {
		Type:        "book_to_course",
		Name:        "Book to Course",
		Description: "Turn a book into a structured online course with lessons and quizzes",
		Steps: []model.WorkflowStep{
			{
				ID:                "analyze_structure",
				Name:              "Analyze book structure",
				Type:              "text_processing",
				ServiceFunction:   "bookService.analyzeStructure",
				InputMapping:      map[string]string{"sourceId": "bookId"},
				OutputMapping:     map[string]string{"outline": "courseOutline"},
				EstimatedDuration: 20,
				EstimatedCost:     0,
			},
			{
				ID:                "generate_lessons",
				Name:              "Generate lessons",
				Type:              "ai_generation",
				ServiceFunction:   "courseService.generateLessons",
				InputMapping:      map[string]string{"courseOutline": "outline"},
				OutputMapping:     map[string]string{"lessons": "lessonList"},
				EstimatedDuration: 240,
				EstimatedCost:     900,
			},
			{
				ID:                "generate_quizzes",
				Name:              "Generate quizzes",
				Type:              "ai_generation",
				ServiceFunction:   "courseService.generateQuizzes",
				InputMapping:      map[string]string{"lessonList": "lessons"},
				OutputMapping:     map[string]string{"quizzes": "quizList"},
				EstimatedDuration: 120,
				EstimatedCost:     400,
			},
			{
				ID:                "publish_course",
				Name:              "Publish course",
				Type:              "export",
				ServiceFunction:   "publishService.publishCourse",
				InputMapping:      map[string]string{"lessonList": "lessons", "quizList": "quizzes"},
				OutputMapping:     map[string]string{"publicUrl": "courseUrl"},
				EstimatedDuration: 15,
				EstimatedCost:     0,
			},
		},
	},
	"movie_production": {
		Type:        "movie_production",
		Name:        "Movie Production",
		Description: "Produce a short movie from a story concept",
		Steps: []model.WorkflowStep{
			{
				ID:                "write_screenplay",
				Name:              "Write screenplay",
				Type:              "ai_generation",
				ServiceFunction:   "screenplayService.draftScreenplay",
				InputMapping:      map[string]string{"sourceId": "conceptId"},
				OutputMapping:     map[string]string{"screenplay": "screenplayDraft"},
				EstimatedDuration: 180,
				EstimatedCost:     700,
			},
			{
				ID:                "generate_storyboard",
				Name:              "Generate storyboard",
				Type:              "ai_generation",
				ServiceFunction:   "storyboardService.generateFrames",
				InputMapping:      map[string]string{"screenplayDraft": "screenplay"},
				OutputMapping:     map[string]string{"frames": "storyboardFrames"},
				EstimatedDuration: 240,
				EstimatedCost:     1200,
			},
			{
				ID:                "render_scenes",
				Name:              "Render scenes",
				Type:              "media_processing",
				ServiceFunction:   "renderService.renderScenes",
				InputMapping:      map[string]string{"storyboardFrames": "frames"},
				OutputMapping:     map[string]string{"scenes": "renderedScenes"},
				EstimatedDuration: 600,
				EstimatedCost:     2500,
			},
			{
				ID:                "compose_score",
				Name:              "Compose score",
				Type:              "ai_generation",
				ServiceFunction:   "musicService.composeScore",
				InputMapping:      map[string]string{"screenplayDraft": "screenplay"},
				OutputMapping:     map[string]string{"score": "scoreTrack"},
				EstimatedDuration: 200,
				EstimatedCost:     800,
			},
			{
				ID:                "final_cut",
				Name:              "Assemble final cut",
				Type:              "media_processing",
				ServiceFunction:   "editService.assembleFinalCut",
				InputMapping:      map[string]string{"renderedScenes": "scenes", "scoreTrack": "score"},
				OutputMapping:     map[string]string{"movieFile": "finalCut"},
				EstimatedDuration: 120,
				EstimatedCost:     0,
			},
		},
	},
	"music_to_video": {
		Type:        "music_to_video",
		Name:        "Music to Video",
		Description: "Generate a music video from an audio track",
		Steps: []model.WorkflowStep{
			{
				ID:                "analyze_track",
				Name:              "Analyze track",
				Type:              "media_processing",
				ServiceFunction:   "audioService.analyzeTrack",
				InputMapping:      map[string]string{"sourceId": "trackId"},
				OutputMapping:     map[string]string{"analysis": "trackAnalysis"},
				EstimatedDuration: 30,
				EstimatedCost:     0,
			},
			{
				ID:                "generate_visuals",
				Name:              "Generate visuals",
				Type:              "ai_generation",
				ServiceFunction:   "visualService.generateVisuals",
				InputMapping:      map[string]string{"trackAnalysis": "analysis"},
				OutputMapping:     map[string]string{"clips": "visualClips"},
				EstimatedDuration: 300,
				EstimatedCost:     1400,
			},
			{
				ID:                "render_video",
				Name:              "Render video",
				Type:              "media_processing",
				ServiceFunction:   "renderService.renderMusicVideo",
				InputMapping:      map[string]string{"visualClips": "clips"},
				OutputMapping:     map[string]string{"videoFile": "musicVideoFile"},
				EstimatedDuration: 180,
				EstimatedCost:     0,
			},
		},
	},
}

// lookupTemplate returns a deep copy so callers can never mutate the
// template's step definitions.
func lookupTemplate(workflowType string) (WorkflowTemplate, bool) {
	tpl, ok := workflowTemplates[workflowType]
	if !ok {
		return WorkflowTemplate{}, false
	}
	steps := make([]model.WorkflowStep, len(tpl.Steps))
	copy(steps, tpl.Steps)
	tpl.Steps = steps
	return tpl, true
}

func availableTemplates() []WorkflowTemplate {
	templates := make([]WorkflowTemplate, 0, len(workflowTemplates))
	for workflowType := range workflowTemplates {
		tpl, _ := lookupTemplate(workflowType)
		templates = append(templates, tpl)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Type < templates[j].Type })
	return templates
}
