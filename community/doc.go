/*
Package community holds the steward's persisted state: the settings of every community (a slack
workspace) and the credits accrued by every member.

Store is the sole owner of that state. It layers the domain types on top of two
store.StringStorer namespaces and provides the atomicity the message processing and the
configuration gateway rely on when they access it concurrently:

  - GetSettings/PutSettings for the same community are linearizable
  - IncrementCredits is an atomic read-modify-write (no increment is ever lost)
  - every write is persisted before the call returns

Backend failures surface as errors matching ErrStorageUnavailable.
*/
package community
