package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "name" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "mismatch":
			return "要素名が一致しません"
		case "required":
			return "必須フィールドが不足しています"
		case "duplicate_child":
			return "子要素が重複しています"
		case "unexpected_attribute":
			return "未知の属性です"
		case "unexpected_child":
			return "未知の子要素です"
		case "unexpected_text":
			return "予期しない文字データです"
		case "invalid_value":
			return "値が不正です"
		case "variant_unknown":
			return "未知のバリアントです"
		case "malformed_xml":
			return "XMLが不正です"
		case "truncated":
			return "打ち切られました"
		case "too_deep":
			return "ネストが深すぎます"
		case "too_big":
			return "入力が大きすぎます"
		case "schema_invalid":
			return "スキーマ定義が不正です"
		case "encode_error":
			return "エンコードエラー"
		}
	default: // "en"
		switch code {
		case "mismatch":
			return "element name mismatch"
		case "required":
			return "required field missing"
		case "duplicate_child":
			return "duplicate child element"
		case "unexpected_attribute":
			return "unexpected attribute"
		case "unexpected_child":
			return "unexpected child element"
		case "unexpected_text":
			return "unexpected character data"
		case "invalid_value":
			return "invalid value"
		case "variant_unknown":
			return "unknown variant"
		case "malformed_xml":
			return "malformed XML"
		case "truncated":
			return "truncated"
		case "too_deep":
			return "nested too deeply"
		case "too_big":
			return "input too big"
		case "schema_invalid":
			return "invalid schema declaration"
		case "encode_error":
			return "encode error"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
