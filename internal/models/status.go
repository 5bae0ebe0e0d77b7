package models

// NetworkStatus состояние сетевого соединения процесса
type NetworkStatus string

// Возможные состояния сети
const (
	StatusOnline   NetworkStatus = "online"
	StatusOffline  NetworkStatus = "offline"
	StatusDegraded NetworkStatus = "degraded"
)
