package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/generation"
)

const (
	// PostTemperature is the sampling temperature for posts and image descriptions.
	PostTemperature float32 = 0.7

	// ImageDescriptionMaxTokens caps the length of a generated image description.
	ImageDescriptionMaxTokens = 300
)

var (
	// ErrUnsupportedKind is returned when a kind has no prompt of the requested sort.
	ErrUnsupportedKind = errors.New("unsupported content kind for prompt")

	// ErrEmptyInput is returned when the title or body is empty.
	ErrEmptyInput = errors.New("title and body are required")
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Prompt is a rendered system and user message pair plus sampling settings.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// TextRequest converts p into a generation request.
func (p Prompt) TextRequest() generation.TextRequest {
	return generation.TextRequest{
		Prompt:       p.User,
		SystemPrompt: p.System,
		Temperature:  p.Temperature,
		MaxTokens:    p.MaxTokens,
	}
}

// platform holds the per-kind wording of a text prompt.
type platform struct {
	noun        string
	system      string
	instruction string
}

var platforms = map[domain.ContentKind]platform{
	domain.ContentKindTwitter: {
		noun: "thread",
		system: `You are an expert at repurposing blog content into engaging Twitter threads.
Create a thread that captures the key points of the blog while maintaining the original voice and style.
Format the thread as 3 to 5 tweets, each numbered 1/, 2/, 3/ and separated by a line break.
Keep each tweet under 280 characters.
Include relevant hashtags at the end of the thread.`,
		instruction: `Please convert this blog post into an engaging Twitter thread that captures the key points
while maintaining the original voice and style. Format as a numbered thread of 3 to 5 tweets,
each under 280 characters.`,
	},
	domain.ContentKindInstagram: {
		noun: "caption",
		system: `You are an expert at repurposing blog content into engaging Instagram captions.
Create a caption that captures the essence of the blog while being visually appealing and engaging.
Include line breaks for readability and relevant hashtags at the end.
The caption should be between 150-300 words.`,
		instruction: `Please convert this blog post into an engaging Instagram caption that captures the essence
of the content. Include line breaks for readability and relevant hashtags at the end.
The caption should be between 150-300 words.`,
	},
	domain.ContentKindLinkedIn: {
		noun: "post",
		system: `You are an expert at repurposing blog content into professional LinkedIn posts.
Create a post that presents the key insights from the blog in a professional, thoughtful manner.
Format the post with clear paragraphs, bullet points where appropriate, and a call to action.
The post should be between 200-500 words.`,
		instruction: `Please convert this blog post into a professional LinkedIn post that presents the key insights
in a thoughtful manner. Format with clear paragraphs, bullet points where appropriate, and include
a call to action. The post should be between 200-500 words.`,
	},
	domain.ContentKindFacebook: {
		noun: "post",
		system: `You are an expert at repurposing blog content into engaging Facebook posts.
Create a post that captures the key points of the blog while encouraging engagement.
Format the post with clear paragraphs and include a question or call to action to encourage comments.
The post should be between 150-400 words.`,
		instruction: `Please convert this blog post into an engaging Facebook post that captures the key points
while encouraging engagement. Format with clear paragraphs and include a question or call to action
to encourage comments. The post should be between 150-400 words.`,
	},
}

type textData struct {
	Title       string
	Body        string
	Instruction string
	Noun        string
	Tone        string
	Hashtags    []string
}

type imageData struct {
	Platform string
	Title    string
	Body     string
	Text     string
	Style    string
	Tone     string
	Hashtags []string
}

// BuildTextPrompt returns the prompt for the post of a social kind.
// Thumbnail has no text post and yields ErrUnsupportedKind.
func BuildTextPrompt(kind domain.ContentKind, title, body string, meta domain.JobMetadata) (Prompt, error) {
	if !kind.IsValid() {
		return Prompt{}, fmt.Errorf("%w: %q", domain.ErrInvalidContentKind, string(kind))
	}
	p, ok := platforms[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s has no text post", ErrUnsupportedKind, kind)
	}
	if err := checkInput(title, body); err != nil {
		return Prompt{}, err
	}

	user, err := render("text_user.tmpl", textData{
		Title:       strings.TrimSpace(title),
		Body:        strings.TrimSpace(body),
		Instruction: p.instruction,
		Noun:        p.noun,
		Tone:        strings.TrimSpace(meta.Tone),
		Hashtags:    cleanList(meta.Hashtags),
	})
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		System:      p.system,
		User:        user,
		Temperature: PostTemperature,
	}, nil
}

// BuildImagePrompt returns the prompt asking a text model to describe the
// image for kind. For social kinds the already generated post is included
// when text is non-empty; thumbnails use a generic article prompt.
func BuildImagePrompt(kind domain.ContentKind, title, body, text string, meta domain.JobMetadata) (Prompt, error) {
	if !kind.IsValid() {
		return Prompt{}, fmt.Errorf("%w: %q", domain.ErrInvalidContentKind, string(kind))
	}
	if err := checkInput(title, body); err != nil {
		return Prompt{}, err
	}

	data := imageData{
		Platform: string(kind),
		Title:    strings.TrimSpace(title),
		Body:     strings.TrimSpace(body),
		Text:     strings.TrimSpace(text),
		Style:    strings.TrimSpace(meta.Style),
		Tone:     strings.TrimSpace(meta.Tone),
		Hashtags: cleanList(meta.Hashtags),
	}

	systemName, userName := "image_system.tmpl", "image_social.tmpl"
	if kind == domain.ContentKindThumbnail {
		systemName, userName = "thumbnail_system.tmpl", "thumbnail_user.tmpl"
	}

	system, err := render(systemName, data)
	if err != nil {
		return Prompt{}, err
	}
	user, err := render(userName, data)
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		System:      system,
		User:        user,
		Temperature: PostTemperature,
		MaxTokens:   ImageDescriptionMaxTokens,
	}, nil
}

func checkInput(title, body string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return ErrEmptyInput
	}
	return nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// cleanList drops blank entries.
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
