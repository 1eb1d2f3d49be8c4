// @title WebPDTool Service API
// @version 1.0.0
// @description API для выполнения тест-планов аппаратных станций, управления инструментами и отправки результатов в Kafka.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/sprigga/WebPDTool-sub005/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
