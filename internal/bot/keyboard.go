package bot

// tgbotapi v5.5.1 старше Bot API 6.0 и не знает про web_app кнопки, поэтому
// reply_markup собираем из своих структур: библиотека маршалит ReplyMarkup
// как есть через json.Marshal.

type webAppInfo struct {
	URL string `json:"url"`
}

type replyButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type replyMarkup struct {
	Keyboard       [][]replyButton `json:"keyboard"`
	ResizeKeyboard bool            `json:"resize_keyboard"`
}

type inlineButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type inlineMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// webAppReplyKeyboard строит постоянную клавиатуру с одной web_app кнопкой
func webAppReplyKeyboard(text, url string) replyMarkup {
	return replyMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]replyButton{{
			{Text: text, WebApp: &webAppInfo{URL: url}},
		}},
	}
}

// webAppInlineKeyboard строит inline-клавиатуру с одной web_app кнопкой
func webAppInlineKeyboard(text, url string) inlineMarkup {
	return inlineMarkup{
		InlineKeyboard: [][]inlineButton{{
			{Text: text, WebApp: &webAppInfo{URL: url}},
		}},
	}
}
