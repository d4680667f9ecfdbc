package middleware

import (
	"storygraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"storygraph/pkg/ai"
	oai "storygraph/pkg/ai/ollama"
	gai "storygraph/pkg/ai/openai"
	"storygraph/pkg/logger"
)

type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	S3       *s3.Client
	AiClient ai.Client
	APIKey   string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	s3 *s3.Client,
	apiKey string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			adapter := util.GetEnv("AI_ADAPTER")
			var aiClient ai.Client

			switch adapter {
			case "ollama":
				client, err := oai.NewNewsOllamaClient(oai.NewNewsOllamaClientParams{
					EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
					ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),

					BaseURL: util.GetEnv("AI_CHAT_URL"),
					ApiKey:  util.GetEnv("AI_CHAT_KEY"),

					MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
				})
				if err != nil {
					logger.Fatal("Failed to create Ollama client", "err", err)
				}
				aiClient = client
			default:
				aiClient = gai.NewNewsAIClient(gai.NewNewsAIClientParams{
					EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
					ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),

					EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
					EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
					ChatURL:      util.GetEnv("AI_CHAT_URL"),
					ChatKey:      util.GetEnv("AI_CHAT_KEY"),

					MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
				})
			}

			app := &App{
				DBConn:   db,
				Queue:    queue,
				S3:       s3,
				AiClient: aiClient,
				APIKey:   apiKey,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
