/*
Package datastoredb provides an implementation of github.com/alexandre-normand/steward/store's StringStorer interface
backed by the Google Cloud Datastore.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

Every call is bounded by a timeout (see OptionTimeout) and a failed call is retried once after
reconnecting since long-lived clients occasionally end up with expired credentials.

Example code:

	import (
		"github.com/alexandre-normand/steward/store/datastoredb"
		"google.golang.org/api/option"
	)

	func main() {
		// The first argument is going to be this instance's namespace (the datastore Kind).
		// The second argument is the gcloud project id which is what you'll have created with your gcloud service account
		// The last arguments are client options which are most useful for providing credentials either in the form of a pre-parsed json file or
		// most commonly, the path to a json credentials file
		creditsStorer, err := datastoredb.New("memberCredits", "steward", nil, option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening [%s] db failed: %s", "memberCredits", err.Error())
		}
		defer creditsStorer.Close()
		...
	}
*/
package datastoredb
