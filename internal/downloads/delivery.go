package downloads

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateJob() echo.HandlerFunc
	DownloadArchive() echo.HandlerFunc
	GetJobByID() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
	DecideMode() echo.HandlerFunc
	ProcessJobs() echo.HandlerFunc
}
