package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改，调用方应刷新后重试
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrChainInvariant 版本链不变量被破坏（同链多个激活版本等），属内部致命错误
var ErrChainInvariant = errors.New("版本链状态异常，事务已中止")
