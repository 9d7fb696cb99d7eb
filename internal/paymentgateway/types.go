package paymentgateway

// CreateIntentRequest — параметры создания платёжного намерения.
// Поля partnerCode, accessKey, requestId, requestType и signature
// клиент выставляет сам.
type CreateIntentRequest struct {
	Amount      int64  // Сумма к списанию, вычисляется только из плана
	OrderID     string // Опорный номер заказа, уникален для каждой попытки
	OrderInfo   string // Человекочитаемое описание заказа
	RedirectURL string // Куда вернуть браузер после оплаты
	IpnURL      string // Адрес серверного колбэка
	ExtraData   string // Строка вида userId=..&plan=.., шлюз вернёт её в колбэке
}

// createIntentPayload — тело запроса к шлюзу в его формате.
type createIntentPayload struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

// CreateIntentResponse — ответ шлюза на создание намерения.
type CreateIntentResponse struct {
	PayURL     string `json:"payUrl"`     // URL для редиректа плательщика
	ResultCode int    `json:"resultCode"` // 0 — намерение создано
	Message    string `json:"message"`
}
