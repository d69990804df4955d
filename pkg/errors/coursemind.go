package errors

// coursemind 业务错误码，服务号 20。
var (
	// ErrInvalidQuery 问题为空或只包含空白字符。
	ErrInvalidQuery = NewRequestErr(ServiceCourseMind, 1, "Query is required", "问题不能为空")

	// ErrConversationNotFound 会话不存在。
	ErrConversationNotFound = NewNotFoundErr(ServiceCourseMind, 1, "Conversation not found", "会话不存在")

	// ErrNotReady 服务初始化尚未完成。
	ErrNotReady = NewUnavailableErr(ServiceCourseMind, 1, "Service is not ready", "服务尚未就绪")

	// ErrEmbeddingFailed 向量化调用失败或返回数量不一致。
	ErrEmbeddingFailed = NewBuilder(ServiceCourseMind, CategoryUpstream, 1).
				Message("Embedding failed", "向量化失败").
				MustBuild()

	// ErrGenerationFailed 大模型生成答案失败。
	ErrGenerationFailed = NewBuilder(ServiceCourseMind, CategoryUpstream, 2).
				Message("Answer generation failed", "答案生成失败").
				MustBuild()

	// ErrTranslationFailed 翻译调用失败或返回数量不一致。
	ErrTranslationFailed = NewBuilder(ServiceCourseMind, CategoryUpstream, 3).
				Message("Translation failed", "翻译失败").
				MustBuild()

	// ErrRetrievalFailed 知识库检索失败。
	ErrRetrievalFailed = NewBuilder(ServiceCourseMind, CategoryDatabase, 1).
				Message("Retrieval failed", "知识库检索失败").
				MustBuild()

	// ErrPartialIngest 单个视频入库失败，其余视频继续处理。
	ErrPartialIngest = NewBuilder(ServiceCourseMind, CategoryIngest, 1).
				Message("Video ingestion failed", "视频入库失败").
				MustBuild()
)
