package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// PageResponse - 페이지네이션 응답 공통 포맷
type PageResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type SnapshotPage = PageResponse[TrafficSnapshot]

type AlertPage = PageResponse[Alert]

type AlertResolveResponse struct {
	Status string `json:"status"`
	Data   *Alert `json:"data"`
}

type PublishEventResponse struct {
	Status    string `json:"status"`
	Delivered bool   `json:"delivered"`
}
