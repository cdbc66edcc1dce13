// Package webhook receives Superfeedr (PubSubHubbub) content notifications.
//
// The hub POSTs new entries for a subscribed topic to a per-feed callback URL
// and signs the exact request body with the secret given at subscribe time:
//
//	POST /superfeedr/feed/{feed_id}
//	X-Hub-Signature: sha1=<hex HMAC-SHA1(secret, body)>
//
// # Request Flow
//
//  1. A Notifier must be registered (configuration check)
//  2. The feed is resolved through the FeedFinder
//  3. The signature header must be present
//  4. The algorithm must be sha1
//  5. The body is read, bounded by MaxBodySize
//  6. The HMAC of the body must equal the received digest
//  7. The Notifier runs with the sanitized params (and body, request)
//
// # Response Policy
//
// Every notification is answered 200 OK with an empty body, including the
// rejected ones. A failure status would only make the hub retry a payload that
// is rejected locally. Rejections are logged with the feed id and reason and
// reported to the optional DeliveryRecorder; use the retrieve API to recover a
// dropped update.
//
// # Example Usage
//
//	notifier := webhook.NotifyWithBody(func(ctx context.Context, f webhook.Feed, params url.Values, body []byte) error {
//		return store.Save(ctx, f.FeedID(), body)
//	})
//	server := webhook.New(cfg, feeds, notifier, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
