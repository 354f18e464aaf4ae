/*
Package steward provides the chat side of a community bot for slack.

Every human message received in a community is run through the policy of that community
(see the policy package): it can trigger an auto-reply, get deleted by keyword moderation
(with a private notice to its author) and, in all cases, earns its author one credit. The
settings of each community and the credits of every member live in a community.Store
which administrators update through the configuration gateway (see the gateway package).

Messages are processed by a pool of workers partitioned by community: messages of a
community are handled in the order they're received while different communities are
processed in parallel. A failure to apply one effect (a slack api error, a storage error)
never prevents the other effects of the same message from being applied.

Example:

	v, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	s, err := steward.NewBot("steward", v).
		WithStore(communityStore).
		WithCloser(communityStore).
		Build()
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	err = s.Run(context.Background())
*/
package steward
