// Package worker implements the case-when worker lifecycle and Redis Streams integration.
//
// The worker reads evaluation requests from a Redis stream, evaluates the
// request's rules against its table and publishes the resulting column.
//
// A request carries the table and the ordered rules:
//
//	{
//	  "request_id": "r1",
//	  "output": "size",
//	  "table": {"x": [0, 1, 2], "y": [10, 11, 12]},
//	  "rules": [
//	    {"when": {"expr": "x < 2"}, "then": {"column": "y"}},
//	    {"when": {"literal": true}, "then": {"literal": 999}}
//	  ]
//	}
//
// Results go to RESULT_STREAM; failures go to RESULT_STREAM + ".errors" with
// an error_kind of configuration, shape, type or request.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	evaluator := casewhen.NewEvaluator(logger)
//
//	worker := worker.NewWorker(cfg, redisClient, evaluator, template.NewEngine(), logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(ctx)
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
