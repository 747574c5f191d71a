/*
Package document implements a client for the document-creation endpoint of
the product marking API. Every call goes through a sliding window limiter so
that a burst of goroutines never exceeds the remote rate limit.

Basic usage:

	limiter := window.New(5*time.Second, 10)
	client, err := document.NewClient(document.Config{
		Token:   os.Getenv("SLIDEGATE_TOKEN"),
		Limiter: limiter,
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := client.Create(ctx, document.Sample(1), "<Sign 1>")
	if err != nil {
		var apiErr *document.APIError
		if errors.As(err, &apiErr) {
			log.Printf("rejected with %d: %s", apiErr.StatusCode, apiErr.Body)
		}
		return err
	}
	log.Printf("created %s after waiting %v", res.DocID, res.Waited)

The client does not retry. A non-2xx response is returned as *APIError; a
429 response unwraps to errors.ErrRateLimited so callers can decide to retry
above the limiter. The limiter slot is released on every path.
*/
package document
