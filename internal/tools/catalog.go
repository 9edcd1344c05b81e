package tools

// 工具名称常量，调度器的路由键。
const (
	ToolGenerateImage       = "generate_image"
	ToolEditImage           = "edit_image"
	ToolGenerateVideo       = "generate_video"
	ToolGetCulturalInsights = "get_cultural_insights"
	ToolListMedia           = "list_media"
)

// MaxMediaListLimit 是 list_media 单次返回条目数的上限。
const MaxMediaListLimit = 50

// Catalog 返回所有工具的元数据。
// 精简部署变体 (没有画廊或视频支持) 在注册时过滤掉对应条目，
// 目录本身始终是完整的五个工具。
func Catalog() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        ToolGenerateImage,
			Description: "Generate an image from a text prompt using the configured AI provider.",
			Params: []ParameterSpec{
				{
					Name:        "prompt",
					Kind:        KindString,
					Description: "Text prompt describing the desired image.",
					Required:    true,
				},
				{
					Name:        "model",
					Kind:        KindEnum,
					Description: "Image generation model to use.",
					Enum:        []string{"imagen", "gemini"},
					Default:     "gemini",
				},
			},
		},
		{
			Name:        ToolEditImage,
			Description: "Edit an existing image according to a text prompt. The source image is supplied as a data URL or a remote URL.",
			Params: []ParameterSpec{
				{
					Name:        "prompt",
					Kind:        KindString,
					Description: "Instructions describing how the image should be edited.",
					Required:    true,
				},
				{
					Name:        "image",
					Kind:        KindString,
					Description: "Source image as a data URL (data:<mime>;base64,...) or a remote URL.",
					Required:    true,
				},
			},
		},
		{
			Name:        ToolGenerateVideo,
			Description: "Generate a short video from a text prompt, optionally starting from a reference image. Video generation is asynchronous and may take several minutes.",
			Params: []ParameterSpec{
				{
					Name:        "prompt",
					Kind:        KindString,
					Description: "Text prompt describing the desired video.",
					Required:    true,
				},
				{
					Name:        "image",
					Kind:        KindString,
					Description: "Optional start image as a data URL or a remote URL.",
				},
				{
					Name:        "aspect_ratio",
					Kind:        KindEnum,
					Description: "Aspect ratio of the generated video.",
					Enum:        []string{"16:9", "9:16", "1:1"},
					Default:     "16:9",
				},
			},
		},
		{
			Name:        ToolGetCulturalInsights,
			Description: "Analyze the cultural context of a city for a business: local aesthetics, communication style and audience preferences.",
			Params: []ParameterSpec{
				{
					Name:        "city",
					Kind:        KindString,
					Description: "City to analyze.",
					Required:    true,
				},
				{
					Name:        "country",
					Kind:        KindString,
					Description: "Country the city belongs to.",
					Required:    true,
				},
				{
					Name:        "business_type",
					Kind:        KindString,
					Description: "Optional business type to focus the analysis on (e.g. restaurant, retail).",
				},
				{
					Name:        "target_audience",
					Kind:        KindString,
					Description: "Optional description of the target audience.",
				},
			},
		},
		{
			Name:        ToolListMedia,
			Description: "List previously generated media from the gallery.",
			Params: []ParameterSpec{
				{
					Name:        "type",
					Kind:        KindEnum,
					Description: "Filter by media type.",
					Enum:        []string{"image", "video", "all"},
					Default:     "all",
				},
				{
					Name:        "limit",
					Kind:        KindNumber,
					Description: "Maximum number of items to return (capped at 50).",
					Default:     float64(20),
				},
			},
		},
	}
}
