// Package worker implements the render worker lifecycle and Redis Streams integration.
//
// The worker reads render requests from a Redis Stream consumer group, renders
// them with the template engine and publishes the output to a result stream.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	engine := template.NewEngine(template.WithLogger(logger))
//
//	worker := worker.NewWorker(cfg, redisClient, engine, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(ctx)
//
// A request carries the template and its data as JSON in the "data" field:
//
//	{"request_id": "r1", "template": "{{#repeat n}}x{{/repeat}}", "data": {"n": 3}}
//
// Results go to RESULT_STREAM, failures to RESULT_STREAM.errors with a "kind"
// such as "argument_type_mismatch" or "block_body_required". Every message is
// acknowledged, successful or not.
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
