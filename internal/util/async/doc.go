// Package async runs independent tasks concurrently and reports their
// errors once every task has finished.
//
// [RunParallel] is used where members of a batch are independent provider
// reservations or calls, such as requesting several worker groups at once.
package async
